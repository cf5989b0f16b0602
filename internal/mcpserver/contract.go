package mcpserver

// DocumentFormatURI identifies the document format resource.
const DocumentFormatURI = "docsadmin://document-format"

// DocumentFormatContract describes how documents are stored on disk so
// LLM consumers can write content the docs site renders correctly.
const DocumentFormatContract = `# Documentation Content Format

Every page of the documentation site is one Markdown or MDX file under the
content root. Folders become sections of the sidebar.

## Structure

` + "```" + `markdown
---
title: "Deploying to production"
description: "Step by step release checklist"
---

# Deploying to production

Body text in Markdown or MDX.
` + "```" + `

## Rules

1. **Front-matter comes first.** The ` + "`---`" + ` fences must open the file.
   Only ` + "`title`" + ` and ` + "`description`" + ` are stored; both are quoted strings.
2. **Use the tools, not raw files.** ` + "`write_document`" + ` takes the title,
   description and body separately and writes the front-matter for you.
   Saving the same filename and folder again replaces the document entirely.
3. **File names** end with ` + "`.md`" + ` or ` + "`.mdx`" + `. A name without an
   extension gets ` + "`.mdx`" + `. Nesting is expressed with the ` + "`folder`" + `
   argument, never inside the filename.
4. **Paths** are relative to the content root and use forward slashes.
   ` + "`..`" + ` segments are dropped.
5. **Headings** produce the page's table of contents. Keep one ` + "`#`" + ` title
   heading and nest sections with ` + "`##`" + ` and ` + "`###`" + `.
6. **Deleting a folder** that still has content fails and reports how many
   files and folders it holds. Pass ` + "`force: true`" + ` only after confirming.

## Media

- Upload images, videos and other files with ` + "`upload_media`" + `. It returns a
  ` + "`markdown`" + ` snippet ready to paste into a document body.
- Assets are filed into ` + "`images`" + `, ` + "`videos`" + `, ` + "`gifs`" + ` or ` + "`files`" + `
  by content type, and get a timestamp prefix so names never collide.
- Reference assets by the returned absolute URL, e.g. ` + "`![diagram](/images/1700000000000-diagram.png)`" + `.
`
