package descriptions

// Tool descriptions with practical examples and use cases

const (
	// Document Tools
	ImportDescription = `Load a PDF, or every PDF in a directory, into the document set.

**When to use:** Before previewing or exporting. Every loaded document becomes one row of the export table.

**Why it's useful:** Each page is indexed into word tokens with positions once, so selectors can be replayed against it instantly.

**Examples:**
• Load one file: "Import invoices/2024-001.pdf"
• Load a folder: "Import every PDF in invoices/ (directory=true)"

**Best practices:** Paths are resolved against the configured directory. Re-importing a loaded file is rejected; a failing file in a directory import is skipped and reported.`

	DocumentsDescription = `List the loaded documents with their page and word counts.

**When to use:** To find the document id needed by hover, pick and preview tools.`

	RemoveDocumentDescription = `Unload one document from the document set. Selectors are not affected.`

	ClearDocumentsDescription = `Unload every document. Selectors are not affected.`

	HoverDescription = `Show which word a click at a point would select, without creating anything.

**When to use:** Before picking a word, to confirm the point lands on the intended token.

**Coordinates:** Page space in points, origin at the top-left corner, y grows downward. Pages are numbered from 0.`

	PickWordDescription = `Create a word selector from a click on a document page.

**When to use:** For single values such as an invoice number or a date that always sits at the same spot.

**Examples:**
• "Pick the word at (412, 96) on page 0 of invoice-001.pdf as 'Invoice Number'"

**Best practices:** Use regions_hover first. Nothing is created when no word is under the point.`

	// Selector Tools
	CreateSelectorDescription = `Create a named selector at the end of the export order.

**Modes:**
• word: give x and y; replays as the single word under that point
• box: give x0, y0, x1, y1; replays as every word overlapping the rectangle, in reading order

**Best practices:** Names must be unique, non-blank and at most 100 characters. The export order is the column order of the table.`

	UpdateSelectorDescription = `Replace the geometry of an existing selector, keeping its name and position.`

	RenameSelectorDescription = `Rename a selector without changing its position in the export order.`

	RemoveSelectorDescription = `Delete a selector from the export order.`

	ReorderSelectorsDescription = `Change the column order. Either pass every name in the new order, or move a single selector with from and to indices.`

	ClearSelectorsDescription = `Delete every selector.`

	ListSelectorsDescription = `List the selectors in export order with their mode, page and geometry.`

	SelectorAtDescription = `Find the top-most box selector containing a point on a page.`

	EditorEventDescription = `Drive the interactive selection editor with pointer and tool events.

**Events:**
• begin_drag (page, x, y): start drawing a box
• drag (x, y): extend the drawing, follow a grabbed corner, or move the box
• release: finish the drag; a degenerate box is discarded
• resize_mode (on): toggle corner resizing
• grab_corner (x, y): grab the nearest box corner within the threshold
• begin_move (x, y): start moving the placed box
• commit (name): save the placed box as a box selector
• select (name): place an existing box selector for editing
• cancel: abandon the current gesture, restoring the previous geometry
• reset: drop the placed box

**Best practices:** Edits to a committed selector are written back on release.`

	// Export Tools
	RunExportDescription = `Replay every selector against every loaded document and return the table.

**When to use:** When the selectors are in place and the documents are loaded.

**Output:** One row per document and one column per selector, preceded by a Source File column. Formats: csv (default), tsv, json. A selector that cannot be resolved in a document yields a no-match cell; the rest of the row is unaffected.`

	PreviewDescription = `Show each selector's text for one document, shortened for display.

**When to use:** To check selectors against a sample document before exporting the whole set.`

	SaveTemplateDescription = `Save the selectors to a YAML template so they can be reused on other batches.`

	ServerInfoDescription = `Get the import directory, the PDFs available in it and the size of the current session.

**When to use:** First, to discover which files can be imported.`

	LoadTemplateDescription = `Replace the selectors with those in a template file.

**Best practices:** Accepts YAML templates and the older regions.json layout. Invalid entries are skipped and reported while the rest load.`
)
