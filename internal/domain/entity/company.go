package entity

// Company datos del emisor usados en el IUD y en la cabecera del SAF-T.
type Company struct {
	TaxID       string // NIF del emisor
	Name        string
	StreetName  string
	Number      string
	City        string
	PostalCode  string
	CountryCode string // CV
	Currency    string // CVE

	SoftwareCertificate string
	ProductID           string // nombre del software
	SoftwareVersion     string
}
