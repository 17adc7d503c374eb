package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amv-gms/grievance-service/internal/domain"
)

func TestWriteAcknowledgementProducesPDF(t *testing.T) {
	g := &domain.Grievance{
		ReferenceNo:   "20240115ABCDEF001",
		SubmittedAt:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		HRMSID:        "ABCDEF",
		EmployeeName:  "Ravi Kumar",
		EmployeeNo:    "12345",
		GrievanceType: "Salary",
		Text:          "Arrears for December not credited.",
		Status:        domain.GrievanceStatusNew,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAcknowledgement(&buf, g, "AMV Workshop Grievance Cell", time.Now(), nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestWriteAcknowledgementRejectsNil(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteAcknowledgement(&buf, nil, "office", time.Now(), nil))
	assert.Zero(t, buf.Len())
}

// dejaVuFont finds the DejaVu face shipped with the fpdf module.
func dejaVuFont(t *testing.T) string {
	t.Helper()
	modCache := os.Getenv("GOMODCACHE")
	if modCache == "" {
		gopath := os.Getenv("GOPATH")
		if gopath == "" {
			home, err := os.UserHomeDir()
			require.NoError(t, err)
			gopath = filepath.Join(home, "go")
		}
		modCache = filepath.Join(gopath, "pkg", "mod")
	}
	matches, _ := filepath.Glob(filepath.Join(modCache, "github.com", "go-pdf", "fpdf@*", "font", "DejaVuSansCondensed.ttf"))
	if len(matches) == 0 {
		t.Skip("DejaVuSansCondensed.ttf not in the module cache")
	}
	return matches[len(matches)-1]
}

func TestWriteAcknowledgementEmbedsUTF8Font(t *testing.T) {
	font, err := LoadFont(dejaVuFont(t))
	require.NoError(t, err)

	g := &domain.Grievance{
		ReferenceNo:   "20240115ABCDEF001",
		SubmittedAt:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		HRMSID:        "ABCDEF",
		EmployeeName:  "Светлана Ковалёва",
		GrievanceType: "Salary",
		Text:          "Зарплата за декабрь не начислена.",
		Status:        domain.GrievanceStatusNew,
	}
	var withFont, core bytes.Buffer
	require.NoError(t, WriteAcknowledgement(&withFont, g, "Cell", time.Now(), font))
	require.NoError(t, WriteAcknowledgement(&core, g, "Cell", time.Now(), nil))

	assert.True(t, bytes.HasPrefix(withFont.Bytes(), []byte("%PDF-")))
	assert.Contains(t, withFont.String(), "/FontFile2", "the TrueType face is embedded")
	assert.NotContains(t, core.String(), "/FontFile2")
}

func TestLoadFontRejectsNonFonts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.ttf")
	require.NoError(t, os.WriteFile(path, []byte("these are not the glyphs you are looking for"), 0o600))

	_, err := LoadFont(path)
	assert.Error(t, err)

	_, err = LoadFont(filepath.Join(dir, "missing.ttf"))
	assert.Error(t, err)
}
