// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and reference only known metric names.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/prometheus/promql/parser"
)

// histogramSuffixes are stripped before looking a series name up, so the
// base histogram name covers its _bucket, _sum and _count series.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Result collects validation findings.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation found no errors.
func (r *Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Dashboard validates every target expression in a built dashboard. The
// dashboard is walked through its JSON form so any panel type is covered.
func Dashboard(dash any, known map[string]bool) *Result {
	r := &Result{}

	data, err := json.Marshal(dash)
	if err != nil {
		r.errorf("marshaling dashboard: %v", err)
		return r
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		r.errorf("decoding dashboard: %v", err)
		return r
	}

	exprs := collectExprs(tree, "", nil)
	if len(exprs) == 0 {
		r.warnf("dashboard has no query expressions")
	}
	for _, e := range exprs {
		checkExpr(r, e.where, e.expr, known)
	}
	return r
}

// Expressions validates a set of named expressions, such as rule bodies.
func Expressions(exprs map[string]string, known map[string]bool) *Result {
	r := &Result{}
	for where, expr := range exprs {
		checkExpr(r, where, expr, known)
	}
	return r
}

type located struct {
	where string
	expr  string
}

// collectExprs finds every "expr" string in the tree, labelled with the
// title of the nearest enclosing panel.
func collectExprs(node any, title string, out []located) []located {
	switch v := node.(type) {
	case map[string]any:
		if t, ok := v["title"].(string); ok {
			title = t
		}
		if e, ok := v["expr"].(string); ok {
			if strings.TrimSpace(e) == "" {
				out = append(out, located{where: title, expr: ""})
			} else {
				out = append(out, located{where: title, expr: e})
			}
		}
		for _, child := range v {
			out = collectExprs(child, title, out)
		}
	case []any:
		for _, child := range v {
			out = collectExprs(child, title, out)
		}
	}
	return out
}

func checkExpr(r *Result, where, expr string, known map[string]bool) {
	if strings.TrimSpace(expr) == "" {
		r.warnf("%s: empty expression", where)
		return
	}

	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		r.errorf("%s: invalid PromQL %q: %v", where, expr, err)
		return
	}

	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !known[baseName(vs.Name)] && !known[vs.Name] {
			r.errorf("%s: unknown metric %q", where, vs.Name)
		}
		return nil
	})
}

func baseName(name string) string {
	for _, s := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, s); ok {
			return base
		}
	}
	return name
}
