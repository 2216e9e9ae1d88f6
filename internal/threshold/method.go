package threshold

import (
	"fmt"
	"strings"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

// Method names a thresholding procedure.
type Method string

const (
	AUCP   Method = "aucp"
	Chau   Method = "chau"
	Clust  Method = "clust"
	EB     Method = "eb"
	Filter Method = "filter"
	FWFM   Method = "fwfm"
	GESD   Method = "gesd"
	MAD    Method = "mad"
	Meta   Method = "meta"
	Moll   Method = "moll"
	MTT    Method = "mtt"
)

var descriptions = map[Method]string{
	AUCP:   "area under the density curve percentage",
	Chau:   "Chauvenet's criterion",
	Clust:  "two-group clustering",
	EB:     "elliptical boundary Monte-Carlo search",
	Filter: "filtered curve maximum",
	FWFM:   "full width at full minimum of the density peak",
	GESD:   "generalized extreme studentized deviate",
	MAD:    "median absolute deviation",
	Meta:   "pretrained ensemble vote",
	Moll:   "mollifier smoothing",
	MTT:    "modified Thompson tau test",
}

// Methods lists every procedure in alphabetical order.
func Methods() []Method {
	return []Method{AUCP, Chau, Clust, EB, Filter, FWFM, GESD, MAD, Meta, Moll, MTT}
}

// Description is a short human readable name of the procedure.
func (m Method) Description() string {
	return descriptions[m]
}

// ParseMethod resolves a procedure name, case-insensitively.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := descriptions[m]; !ok {
		return "", fmt.Errorf("%w: unknown method %q", scoring.ErrValidation, name)
	}
	return m, nil
}
