package tensor

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// IdentityExpr is the pointwise expression copying x0 into y0.
const IdentityExpr = "y0=x0;"

// ParseAssignments parses a pointwise expression made only of assignments of
// the form "yN=xM;" and returns, for each of the ny outputs, the index of the
// input it copies. Every output must be assigned exactly once.
func ParseAssignments(expr string, nx, ny int) ([]int, error) {
	sources := make([]int, ny)
	for i := range sources {
		sources[i] = -1
	}
	for _, stmt := range strings.Split(expr, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		lhs, rhs, ok := strings.Cut(stmt, "=")
		if !ok {
			return nil, errors.Errorf("pointwise: statement %q is not an assignment", stmt)
		}
		y, err := operand(strings.TrimSpace(lhs), "y", ny)
		if err != nil {
			return nil, err
		}
		x, err := operand(strings.TrimSpace(rhs), "x", nx)
		if err != nil {
			return nil, err
		}
		if sources[y] != -1 {
			return nil, errors.Errorf("pointwise: y%d assigned twice in %q", y, expr)
		}
		sources[y] = x
	}
	for y, x := range sources {
		if x == -1 {
			return nil, errors.Errorf("pointwise: y%d never assigned in %q", y, expr)
		}
	}
	return sources, nil
}

func operand(s, prefix string, n int) (int, error) {
	if !strings.HasPrefix(s, prefix) {
		return 0, errors.Errorf("pointwise: unsupported operand %q (want %sN)", s, prefix)
	}
	i, err := strconv.Atoi(s[len(prefix):])
	if err != nil || i < 0 || i >= n {
		return 0, errors.Errorf("pointwise: operand %q out of range [0, %d)", s, n)
	}
	return i, nil
}
