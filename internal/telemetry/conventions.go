package telemetry

// Attribute names recorded on paperfinder spans
const (
	AttrSubjectCode   = "paperfinder.subject.code"
	AttrSubjectCount  = "paperfinder.subject.count"
	AttrYearStart     = "paperfinder.year.start"
	AttrYearEnd       = "paperfinder.year.end"
	AttrCatalogPath   = "paperfinder.catalog.path"
	AttrConvertFile   = "paperfinder.convert.file"
	AttrConvertPages  = "paperfinder.convert.pages"
	AttrConvertFailed = "paperfinder.convert.failed"
)

// Span names
const (
	SpanNameSearch      = "finder.search"
	SpanNameAddSubject  = "finder.add_subject"
	SpanNameConvertRun  = "convert.run"
	SpanNameConvertFile = "convert.file"
	SpanNameHTTPServer  = "http.server"
)
