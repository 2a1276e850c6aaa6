package importer

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Sha256String returns the lowercase hex SHA-256 digest of input
func Sha256String(input string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(input)))
}

// fieldEscaper makes the "|" joined form unambiguous; fields without either
// character serialize unchanged.
var fieldEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`)

// Fingerprint is the deduplication key of a candidate: date, amount, counterparty
// and description only. Metadata such as contract IDs never changes it.
func Fingerprint(c *Candidate) string {
	return Sha256String(strings.Join([]string{
		c.Date.Format("2006-01-02"),
		c.Amount.StringFixed(2),
		fieldEscaper.Replace(c.Counterparty),
		fieldEscaper.Replace(c.Description),
	}, "|"))
}
