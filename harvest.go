// Package harvest turns externally owned data into collection content.
// It crawls relational databases described by declarative job files,
// exports each query as a delimited file, and ingests files (exports,
// PDFs, HTML pages) into documents and pages, falling back to OCR for
// pages that carry no usable text.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, sqldb/, poppler/).
package harvest
