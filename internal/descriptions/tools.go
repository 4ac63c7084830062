package descriptions

// Tool descriptions with practical examples and workflows

const (
	// Session Tools
	FormOpenPDFDescription = `Open a PDF from the workspace directory and start a form design session.

**When to use:** First step of every workflow. The returned session_id is required by every other form tool.

**Why it's useful:** The first page is measured and a canvas is derived from it at the configured scale. All field coordinates are canvas pixels with the origin in the top left corner.

**Examples:**
• Start designing: "Open application.pdf so I can add name and email fields"
• Resume with a fresh layout: "Open contract.pdf again, the old session can be discarded"

**Common workflows:**
1. Design: form_open_pdf → form_place_field (repeat) → form_export_pdf
2. Review: form_open_pdf → form_list_fields → adjust with form_move_field / form_resize_field

**Best practices:** Paths are resolved inside the workspace directory. Only the first page receives fields.`

	FormPlaceFieldDescription = `Place a new form field on the first page and configure it in one step.

**When to use:** Adding a text box, checkbox or dropdown to the document.

**Why it's useful:** The field is clamped inside the canvas, gets the default size for its type (text and dropdown 200x30, checkbox 20x20) and is only kept once its configuration is valid.

**Examples:**
• Text field: type "text", name "full_name", x 72, y 140
• Required checkbox: type "checkbox", name "accept_terms", required true
• Dropdown: type "dropdown", name "country", options "Canada\nMexico\nUnited States"

**Common workflows:**
1. Form building: form_place_field for each field → form_list_fields to verify → form_export_pdf
2. Precise layout: form_place_field → form_resize_field to match the printed box

**Best practices:** Names must not be blank and must be unique for export. Dropdowns need at least one non-blank option, one per line.`

	FormConfirmFieldDescription = `Confirm the field that is waiting for configuration in a session.

**When to use:** After a placement in the browser editor or a form_place_field call that failed validation, to supply a corrected name or options.

**Why it's useful:** A rejected configuration keeps the provisional field, so it can be fixed without placing it again.

**Examples:**
• Fix a blank name: "Confirm the pending field with name 'email'"
• Add missing options: "Confirm the pending dropdown with options 'Small\nMedium\nLarge'"

**Best practices:** Pass cancel true to discard the provisional field instead.`

	// Editing Tools
	FormMoveFieldDescription = `Move an existing field to a new top left position in canvas pixels.

**When to use:** Aligning a field with the printed label or line it belongs to.

**Why it's useful:** The field is clamped so it always stays fully on the page.

**Examples:**
• "Move field 3 to x 100, y 250"

**Best practices:** Use form_list_fields to look up field ids and current positions.`

	FormResizeFieldDescription = `Change the width and height of an existing field in canvas pixels.

**When to use:** Matching the field to the space available on the printed form.

**Why it's useful:** Sizes never go below 20x20 and never extend past the canvas edge.

**Examples:**
• "Make field 2 300 pixels wide and 40 high"`

	FormDeleteFieldDescription = `Remove a field from the session by id.

**When to use:** A field was placed by mistake or is no longer needed.

**Why it's useful:** Deleting is idempotent; removing an unknown id reports that nothing changed.`

	FormListFieldsDescription = `List the fields of a session with their ids, types, names and geometry.

**When to use:** Before moving, resizing or deleting fields, and to verify the layout before export.

**Common workflows:**
1. Verification: form_list_fields → fix issues → form_export_pdf
2. Reuse: form_list_fields with format "yaml" or "fields" → save the layout for the apply command`

	// Output Tools
	FormExportPDFDescription = `Write a copy of the PDF with the session's fields added as an interactive AcroForm.

**When to use:** The layout is complete and the fillable document should be produced.

**Why it's useful:** Each field becomes a real PDF widget that any PDF viewer can fill in. Fields that cannot be written are reported and skipped while the rest are still exported.

**Examples:**
• Default output: "Export the form" writes form-filled.pdf into the workspace
• Custom output: path "out/application-fillable.pdf"

**Best practices:** At least one field is required. Existing files at the output path are overwritten.`

	FormInspectPDFDescription = `List the AcroForm fields already present in a PDF.

**When to use:** Checking an exported document, or discovering what an existing form already contains.

**Why it's useful:** Reports name, type, required flag, options and the rectangle in PDF points for every field.

**Examples:**
• Verify an export: "Inspect form-filled.pdf and confirm the email field is required"`

	FormListFilesDescription = `Find PDFs and saved layout files in the workspace directory.

**When to use:** Before form_open_pdf or form_apply_layout, when the exact file name is unknown.

**Why it's useful:** Matches every word of the query against file names, so "2024 tax" finds tax-return_2024.pdf. Hidden directories are skipped.

**Examples:**
• All PDFs: kind "pdf"
• Saved layouts for a form: query "signup", kind "layout"`
)
