package enums

// DocumentKind distinguishes the generated card documents.
type DocumentKind string

const (
	DocumentKindSingle   DocumentKind = "single"
	DocumentKindCombined DocumentKind = "combined"
)

// String implements fmt.Stringer.
func (d DocumentKind) String() string {
	return string(d)
}
