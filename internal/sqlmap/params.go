package sqlmap

import (
	"reflect"
	"strconv"
)

const genericParamPrefix = "param"

var (
	rowBoundsType     = reflect.TypeOf(RowBounds{})
	resultHandlerType = reflect.TypeOf((*ResultHandler)(nil)).Elem()
)

// Param describes one positional parameter of a mapper method signature.
type Param struct {
	// Type is the declared parameter type.
	Type reflect.Type
	// Name is an explicit per-parameter override, empty when absent.
	Name string
	// ActualName is the source-derived parameter name, used when the
	// configuration enables actual-name binding and no override is present.
	ActualName string
}

// Signature is the declared shape of one mapper method call.
type Signature struct {
	Params []Param
}

// ParamNames maps retained positional parameters to stable names. Control
// parameters (RowBounds values and ResultHandler implementations) are skipped
// entirely: they never appear in the mapping and never shift assigned
// ordinals. Immutable after construction.
type ParamNames struct {
	// positions of retained parameters in the original signature, in order
	positions []int
	names     []string
	explicit  bool
}

// BuildParamNames derives names for sig's parameters. Resolution order per
// parameter: explicit override, then the source-derived name when
// useActualNames is set, then the stringified retained ordinal.
func BuildParamNames(sig Signature, useActualNames bool) *ParamNames {
	pn := &ParamNames{}
	for i, p := range sig.Params {
		if isControlParam(p.Type) {
			continue
		}
		name := p.Name
		if name != "" {
			pn.explicit = true
		} else {
			if useActualNames && p.ActualName != "" {
				name = p.ActualName
			}
			if name == "" {
				name = strconv.Itoa(len(pn.names))
			}
		}
		pn.positions = append(pn.positions, i)
		pn.names = append(pn.names, name)
	}
	return pn
}

func isControlParam(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t == rowBoundsType || (t.Kind() == reflect.Ptr && t.Elem() == rowBoundsType) {
		return true
	}
	return t.Implements(resultHandlerType)
}

// Names returns the assigned names in retained-parameter order.
func (p *ParamNames) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// HasExplicitNames reports whether any parameter carried an override.
func (p *ParamNames) HasExplicitNames() bool { return p.explicit }

// Bind turns the raw positional arguments of one invocation into the value
// the statement binder consumes. Zero retained parameters yield nil. A single
// retained parameter with no explicit names anywhere yields the raw argument
// unwrapped. Otherwise the result is a name-to-value map carrying both the
// assigned names and the generic param1..paramN aliases; a generic alias is
// never installed over an explicitly assigned name.
func (p *ParamNames) Bind(args []interface{}) interface{} {
	if args == nil || len(p.names) == 0 {
		return nil
	}
	if !p.explicit && len(p.names) == 1 {
		return args[p.positions[0]]
	}
	assigned := make(map[string]bool, len(p.names))
	for _, n := range p.names {
		assigned[n] = true
	}
	bound := make(map[string]interface{}, len(p.names)*2)
	for i, name := range p.names {
		value := args[p.positions[i]]
		bound[name] = value
		generic := genericParamPrefix + strconv.Itoa(i+1)
		if !assigned[generic] {
			bound[generic] = value
		}
	}
	return bound
}
