package domain

// ChunkType distinguishes free text from tabular chunk content.
type ChunkType string

const (
	ChunkTypeText  ChunkType = "text"
	ChunkTypeTable ChunkType = "table"
)

// SourceFormat identifies the document format a table came from.
type SourceFormat string

const (
	SourcePDF  SourceFormat = "pdf"
	SourceDOCX SourceFormat = "docx"
	SourceXLSX SourceFormat = "xlsx"
	SourceCSV  SourceFormat = "csv"
)

// ValueType is the semantic type inferred for a table cell.
type ValueType string

const (
	ValueTypeCurrency   ValueType = "currency"
	ValueTypePercentage ValueType = "percentage"
	ValueTypeDate       ValueType = "date"
	ValueTypeNumber     ValueType = "number"
	ValueTypeBoolean    ValueType = "boolean"
	ValueTypeText       ValueType = "text"
)

// ValidValueTypes enumerates every accepted ValueType.
var ValidValueTypes = map[ValueType]bool{
	ValueTypeCurrency:   true,
	ValueTypePercentage: true,
	ValueTypeDate:       true,
	ValueTypeNumber:     true,
	ValueTypeBoolean:    true,
	ValueTypeText:       true,
}

// ExtractionStatus is the terminal status of one extraction attempt.
type ExtractionStatus string

const (
	ExtractionStatusCompleted ExtractionStatus = "completed"
	ExtractionStatusFailed    ExtractionStatus = "failed"
)

// MIME types the sniffer can report.
const (
	MIMEPDF         = "application/pdf"
	MIMEDOCX        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEZIP         = "application/zip"
	MIMEPNG         = "image/png"
	MIMEJPEG        = "image/jpeg"
	MIMEGIF         = "image/gif"
	MIMETIFF        = "image/tiff"
	MIMEBMP         = "image/bmp"
	MIMEWebP        = "image/webp"
	MIMEPlainText   = "text/plain"
	MIMECSV         = "text/csv"
	MIMEOctetStream = "application/octet-stream"
)

// SubsidyFields is the canonical vocabulary normalized headers are
// mapped onto. Headers that map to none of these are omitted.
var SubsidyFields = []string{
	"program_name",
	"amount_min",
	"amount_max",
	"deadline",
	"co_financing_rate",
	"eligible_region",
	"funding_source",
	"application_url",
	"contact_email",
	"farm_size_min_ha",
	"farm_size_max_ha",
}

// IsSubsidyField reports whether name belongs to the canonical schema.
func IsSubsidyField(name string) bool {
	for _, f := range SubsidyFields {
		if f == name {
			return true
		}
	}
	return false
}
