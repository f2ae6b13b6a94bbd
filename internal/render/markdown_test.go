package render

import (
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    []string
		notWant []string
	}{
		{
			name: "division table",
			src: "### Divisão do Ganho de Hoje (R$ 200)\n\n" +
				"| Destino | Valor |\n|---|---|\n| Gasolina | R$ 50 |\n| Reserva | R$ 20 |\n",
			want: []string{"<h3>", "<table>", "<th>Destino</th>", "<td>R$ 50</td>"},
		},
		{
			name: "bold and line breaks",
			src:  "Guarde **R$ 50** para gasolina\nBora!",
			want: []string{"<strong>R$ 50</strong>", "<br"},
		},
		{
			name:    "raw html is dropped",
			src:     "oi <script>alert(1)</script>",
			notWant: []string{"<script>"},
		},
		{
			name: "empty",
			src:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTML(tt.src)
			if err != nil {
				t.Fatalf("HTML() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("HTML() = %q, missing %q", got, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("HTML() = %q, must not contain %q", got, nw)
				}
			}
			if tt.src == "" && got != "" {
				t.Errorf("HTML(\"\") = %q", got)
			}
		})
	}
}
