package routing

import (
	"fmt"

	"github.com/forgeline/artifact-gateway/internal/types"
)

// Policy maps the routing roles onto registered provider names. The concrete
// names are configuration; the per-kind selection shape is the contract.
type Policy struct {
	FastInference  string
	GeneralPurpose string
	CodeSpecialist string
}

// DefaultPolicy uses the adapters' canonical registry names.
func DefaultPolicy() Policy {
	return Policy{
		FastInference:  "fast-inference",
		GeneralPurpose: "general-purpose",
		CodeSpecialist: "code-specialist",
	}
}

// Candidates returns the ordered fallback chain for a request. healthy
// reports the registry's last-known health for a name.
//
// Specialized adapters lead the chain only when the request qualifies and the
// adapter is healthy; the general-purpose adapter is the universal catch-all
// tail and is kept even when flagged unhealthy, as the last resort.
func (p Policy) Candidates(kind types.RequestKind, req *types.GenerateRequest, healthy func(string) bool) ([]string, error) {
	var chain []string

	switch kind {
	case types.KindMindmap:
		if req.Priority == types.PrioritySpeed && healthy(p.FastInference) {
			chain = append(chain, p.FastInference)
		}
	case types.KindCode, types.KindNodeCode:
		if req.Complexity != types.ComplexityLow && healthy(p.CodeSpecialist) {
			chain = append(chain, p.CodeSpecialist)
		}
	case types.KindPRD:
		if req.Complexity == types.ComplexityComprehensive && healthy(p.CodeSpecialist) {
			chain = append(chain, p.CodeSpecialist)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequestKind, kind)
	}

	return append(chain, p.GeneralPurpose), nil
}
