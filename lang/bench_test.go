package lang

import (
	"fmt"
	"strings"
	"testing"
)

// chainSource defines n constants in reverse dependency order, which forces
// one resolver pass per constant.
func chainSource(n int) string {
	var sb strings.Builder

	for i := n - 1; i > 0; i-- {
		fmt.Fprintf(&sb, "def c%d := $+ c%d 1$ ;\n", i, i-1)
	}

	sb.WriteString("def c0 := 0 ;\n")
	fmt.Fprintf(&sb, "out = c%d ;\n", n-1)

	return sb.String()
}

func BenchmarkEvaluate(b *testing.B) {
	for _, n := range []int{10, 100} {
		src := chainSource(n)

		b.Run(fmt.Sprintf("chain-%d", n), func(b *testing.B) {
			for b.Loop() {
				if _, err := Evaluate(b.Context(), src); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkLex(b *testing.B) {
	src := chainSource(100)

	for b.Loop() {
		if _, err := Lex(src); err != nil {
			b.Fatal(err)
		}
	}
}

func TestChainSource(t *testing.T) {
	m := mustEvaluate(t, chainSource(25))

	if out, _ := m.Get("out"); out != int64(24) {
		t.Errorf("out = %v, want 24", out)
	}
}
