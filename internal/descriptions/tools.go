package descriptions

import "sort"

// Tool names exposed over MCP
const (
	ToolExtractFields = "pdf_extract_fields"
	ToolValidateFile  = "pdf_validate_file"
	ToolServerInfo    = "pdf_server_info"
)

// Tool descriptions with practical examples and use cases

const (
	PDFExtractFieldsDescription = `Find the fillable fields of a lease, rental agreement or contract PDF.

**When to use:** Preparing a document for e-signature and you need to know where names, dates, initials and signatures go.

**Why it's useful:** Reads embedded form widgets when the PDF has them. When it has none, infers fields from the printed layout: labels followed by blank underlines ("Owner(s): ______"), labels ending in a colon with empty space after them, and checkbox glyphs (☐ 15% Management Fee).

**Output:** One entry per field with field_id, kind (text, checkbox, radio, signature, date), page, and rect as percentages of the page from the top-left corner. Fields read from widgets also carry source_rect in PDF units, plus value and group for radio buttons.

**Examples:**
• "Which fields in lease-2024-118.pdf must the owner sign?"
• "List the checkbox options on page 2 of management-agreement.pdf"
• "Get field positions from contract.pdf with include_lines so I can see the surrounding text"

**Best practices:** Validate the file first. Check has_acro_form to know whether the fields were declared by the document or inferred.`

	PDFValidateFileDescription = `Verify that a PDF opens and report its page count.

**When to use:** Before extracting fields from an uploaded or unknown file.

**Why it's useful:** Catches wrong extensions, empty files, oversize files and corrupted documents before extraction runs.

**Examples:**
• "Check that signed-lease.pdf is readable"
• "How many pages does addendum.pdf have?"

**Best practices:** Run this first in automated workflows.`

	PDFServerInfoDescription = `Show the extractor's limits, active PDF library and the PDFs it can open.

**When to use:** At the start of a session to discover documents and constraints.

**Why it's useful:** Lists PDFs in the configured directory (cached for five minutes) together with the maximum file size and page limit.

**Examples:**
• "What lease documents are available?"
• "What is the largest file the extractor accepts?"`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolExtractFields: PDFExtractFieldsDescription,
	ToolValidateFile:  PDFValidateFileDescription,
	ToolServerInfo:    PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
