package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "english",
			text: "The program provides funding for farms in the region and support is available to applicants from rural areas.",
			want: "en",
		},
		{
			name: "german",
			text: "Die Förderung ist für die landwirtschaftlichen Betriebe und wird von der Behörde mit einem Zuschuss auf Antrag gewährt.",
			want: "de",
		},
		{
			name: "french",
			text: "Le programme est destiné pour les exploitations agricoles et les aides dans la région sont disponibles pour une demande.",
			want: "fr",
		},
		{
			name: "spanish",
			text: "El programa es para los agricultores de la región y las ayudas en una convocatoria abierta con plazos establecidos.",
			want: "es",
		},
		{
			name: "empty defaults to english",
			text: "",
			want: "en",
		},
		{
			name: "numbers only default to english",
			text: "4500 25000 2025",
			want: "en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}
