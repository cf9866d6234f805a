package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qplens/qplens/internal/adapters/driving/mcp"
)

const notes = `Entropy measures the disorder of a thermodynamic system. The entropy of an isolated system never decreases over time.

Hooke's law states that the force needed to extend a spring is proportional to the distance it is stretched.`

const examPaper = `Physics Final Examination

1. State the second law of thermodynamics.
2. Derive Hooke's law for an ideal spring.
`

var sessionLine = regexp.MustCompile(`Session: (\S+)`)

// indexNotes indexes the study notes and returns the new session id.
func indexNotes(t *testing.T) string {
	t.Helper()
	path := writeFile(t, t.TempDir(), "notes.txt", notes)

	out, err := execute(t, "session", "index", path)
	require.NoError(t, err)
	m := sessionLine.FindStringSubmatch(out)
	require.NotNil(t, m, "output: %s", out)
	return m[1]
}

func TestSessionIndex_NewSession(t *testing.T) {
	installTestServices(t)
	path := writeFile(t, t.TempDir(), "notes.txt", notes)

	out, err := execute(t, "session", "index", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 1 document(s) into")
	assert.Regexp(t, sessionLine, out)
}

func TestSessionIndex_ExistingSession(t *testing.T) {
	installTestServices(t)
	path := writeFile(t, t.TempDir(), "notes.md", "# Optics\n\nLight bends when it enters glass.")

	out, err := execute(t, "session", "index", "--session", "physics", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Session: physics")
}

func TestSessionIndex_MissingFile(t *testing.T) {
	installTestServices(t)

	_, err := execute(t, "session", "index", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestSessionQuery(t *testing.T) {
	installTestServices(t)
	session := indexNotes(t)

	out, err := execute(t, "session", "query", session, "entropy of an isolated system", "-k", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] notes.txt #")
	assert.NotContains(t, out, "[2]")
}

func TestSessionQuery_JSON(t *testing.T) {
	installTestServices(t)
	session := indexNotes(t)

	out, err := execute(t, "session", "query", session, "spring force", "--json")
	require.NoError(t, err)

	var passages []passageView
	require.NoError(t, json.Unmarshal([]byte(out), &passages))
	require.NotEmpty(t, passages)
	assert.Equal(t, "notes.txt", passages[0].Source)
	for i := 1; i < len(passages); i++ {
		assert.GreaterOrEqual(t, passages[i-1].Score, passages[i].Score)
	}
}

func TestSessionQuery_UnknownSession(t *testing.T) {
	installTestServices(t)

	out, err := execute(t, "session", "query", "nobody", "entropy")
	require.NoError(t, err)
	assert.Contains(t, out, "No passages found.")
}

func TestSessionDrop(t *testing.T) {
	installTestServices(t)
	session := indexNotes(t)

	out, err := execute(t, "session", "drop", session)
	require.NoError(t, err)
	assert.Regexp(t, `Removed [1-9]\d* chunk\(s\) from session `+session, out)

	out, err = execute(t, "session", "query", session, "entropy")
	require.NoError(t, err)
	assert.Contains(t, out, "No passages found.")
}

func TestAnswer_Arguments(t *testing.T) {
	installTestServices(t)
	session := indexNotes(t)

	out, err := execute(t, "answer", "--session", session, "What is entropy", "State Hooke's law?")
	require.NoError(t, err)
	assert.Contains(t, out, "**Q1.** What is entropy?")
	assert.Contains(t, out, "**Q2.** State Hooke's law?")
	assert.Contains(t, out, "Answer to What is entropy")
	assert.Contains(t, out, "---")
}

func TestAnswer_FileAndOut(t *testing.T) {
	installTestServices(t)
	session := indexNotes(t)
	dir := t.TempDir()
	questions := writeFile(t, dir, "questions.txt", "# week 3\nWhat is entropy?\n\nWhat is a spring?\n")
	outPath := filepath.Join(dir, "answers.md")

	out, err := execute(t, "answer", "-s", session, "-f", questions, "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 answer(s) to "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "**Q1.** What is entropy?")
	assert.Contains(t, string(data), "**Q2.** What is a spring?")
	assert.NotContains(t, string(data), "week 3")
}

func TestAnswer_NoQuestions(t *testing.T) {
	installTestServices(t)

	_, err := execute(t, "answer", "--session", "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no questions given")
}

func TestAnswer_RequiresSession(t *testing.T) {
	installTestServices(t)

	_, err := execute(t, "answer", "What is entropy?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session")
}

func TestReadQuestions_MissingFile(t *testing.T) {
	_, err := readQuestions(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open questions file")
}

func TestPaperUpload_Flags(t *testing.T) {
	installTestServices(t)
	path := writeFile(t, t.TempDir(), "phy201.txt", examPaper)

	out, err := execute(t, "paper", "upload", path,
		"--title", "Physics Final", "--course", "PHY201", "--year", "2023", "--term", "fall")
	require.NoError(t, err)
	assert.Contains(t, out, ": Physics Final")
	assert.Contains(t, out, "Questions: 2 (new 2, repeated 0)")
}

func TestPaperUpload_RepeatedQuestions(t *testing.T) {
	installTestServices(t)
	dir := t.TempDir()
	first := writeFile(t, dir, "2022.txt", examPaper)
	second := writeFile(t, dir, "2023.txt", examPaper+"3. Define specific heat capacity.\n")

	_, err := execute(t, "paper", "upload", first,
		"--title", "Physics 2022", "--course", "PHY201", "--year", "2022", "--term", "fall")
	require.NoError(t, err)

	out, err := execute(t, "paper", "upload", second,
		"--title", "Physics 2023", "--course", "PHY201", "--year", "2023", "--term", "fall")
	require.NoError(t, err)
	assert.Contains(t, out, "Questions: 3 (new 1, repeated 2)")
	assert.Contains(t, out, "seen before (x2")

	out, err = execute(t, "leaderboard")
	require.NoError(t, err)
	assert.Contains(t, out, "FIRST PAPER")
	assert.Contains(t, out, "PHY201 FALL 2022")
	assert.Regexp(t, `1\s+2\s+PHY201`, out)
}

func TestPaperUpload_Sidecar(t *testing.T) {
	installTestServices(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "exam.txt", examPaper)
	writeFile(t, dir, "exam.yaml", "title: Sidecar Exam\ncourse: PHY201\nyear: 2021\nterm: spring\n")

	out, err := execute(t, "paper", "upload", path, "--json")
	require.NoError(t, err)

	var result struct {
		PaperID    string `json:"PaperID"`
		Title      string `json:"Title"`
		TotalCount int    `json:"TotalCount"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.NotEmpty(t, result.PaperID)
	assert.Equal(t, "Sidecar Exam", result.Title)
	assert.Equal(t, 2, result.TotalCount)
}

func TestPaperUpload_MetaFile(t *testing.T) {
	installTestServices(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "exam.txt", examPaper)
	meta := writeFile(t, dir, "meta.yml", "title: Meta Exam\ncourse: CHM101\nyear: 2020\nterm: final\n")

	out, err := execute(t, "paper", "upload", path, "-m", meta, "--uploaded-by", "sam")
	require.NoError(t, err)
	assert.Contains(t, out, ": Meta Exam")

	out, err = execute(t, "paper", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CHM101")
	assert.Contains(t, out, "2 questions (2 new)")
}

func TestPaperUpload_MetadataErrors(t *testing.T) {
	installTestServices(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "exam.txt", examPaper)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no sidecar", nil, "no metadata for"},
		{"bad term", []string{"--title", "T", "--course", "C", "--year", "2023", "--term", "autumn"}, "term"},
		{"missing title", []string{"--course", "C", "--year", "2023", "--term", "fall"}, "title"},
		{"missing meta file", []string{"--meta", filepath.Join(dir, "nope.yaml")}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"paper", "upload", path}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPaperUpload_EmptyPaper(t *testing.T) {
	installTestServices(t)
	path := writeFile(t, t.TempDir(), "blank.txt", "   \n")

	_, err := execute(t, "paper", "upload", path,
		"--title", "Blank", "--course", "PHY201", "--year", "2023", "--term", "fall")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload failed")
}

func TestPaperUpload_NoMetadataReader(t *testing.T) {
	installTestServices(t)
	metadataReader = nil
	path := writeFile(t, t.TempDir(), "exam.txt", examPaper)

	_, err := execute(t, "paper", "upload", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no metadata given")
}

func TestPaperListAndGet(t *testing.T) {
	installTestServices(t)

	out, err := execute(t, "paper", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No papers uploaded yet.")

	path := writeFile(t, t.TempDir(), "exam.txt", examPaper)
	out, err = execute(t, "paper", "upload", path, "--json",
		"--title", "Physics Final", "--course", "PHY201", "--year", "2023", "--term", "fall")
	require.NoError(t, err)
	var result struct {
		PaperID string `json:"PaperID"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	out, err = execute(t, "paper", "list", "--json")
	require.NoError(t, err)
	var papers []paperView
	require.NoError(t, json.Unmarshal([]byte(out), &papers))
	require.Len(t, papers, 1)
	assert.Equal(t, result.PaperID, papers[0].ID)
	assert.Equal(t, "FALL", papers[0].Term)
	assert.Len(t, papers[0].QuestionIDs, 2)
	assert.Equal(t, []string{}, papers[0].ReusedQuestionIDs)

	out, err = execute(t, "paper", "get", result.PaperID)
	require.NoError(t, err)
	assert.Contains(t, out, "Title:     Physics Final")
	assert.Contains(t, out, "Sitting:   FALL 2023")
	assert.Contains(t, out, "Questions: 2 (new 2, repeated 0)")

	_, err = execute(t, "paper", "get", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get paper")
}

func TestPaperForChange(t *testing.T) {
	dir := t.TempDir()
	paper := writeFile(t, dir, "exam.pdf", "%PDF")
	sidecar := writeFile(t, dir, "exam.yaml", "title: x")
	orphan := writeFile(t, dir, "lonely.yaml", "title: x")

	assert.Equal(t, paper, paperForChange(paper))
	assert.Equal(t, paper, paperForChange(sidecar))
	assert.Empty(t, paperForChange(orphan))
}

func TestLeaderboard_Empty(t *testing.T) {
	installTestServices(t)

	out, err := execute(t, "leaderboard")
	require.NoError(t, err)
	assert.Contains(t, out, "No questions recorded yet.")
}

func TestLeaderboard_JSONLimit(t *testing.T) {
	installTestServices(t)
	path := writeFile(t, t.TempDir(), "exam.txt", examPaper)
	_, err := execute(t, "paper", "upload", path,
		"--title", "Physics Final", "--course", "PHY201", "--year", "2023", "--term", "fall")
	require.NoError(t, err)

	out, err := execute(t, "leaderboard", "--json", "-n", "1")
	require.NoError(t, err)

	var entries []leaderboardView
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 1, entries[0].Question.OccurrenceCount)
	assert.Equal(t, "PHY201", entries[0].Paper.Course)
	assert.Equal(t, "FALL", entries[0].Paper.Term)
}

func TestSettingsShow(t *testing.T) {
	installTestServices(t)

	out, err := execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[Engine]")
	assert.Contains(t, out, "  Top K: 3")
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "[LLM]")
}

func TestSettingsSet(t *testing.T) {
	installTestServices(t)

	out, err := execute(t, "settings", "set", "engine.top_k", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "engine.top_k = 7")

	out, err = execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "  Top K: 7")
}

func TestSettingsSet_MasksAPIKey(t *testing.T) {
	installTestServices(t)

	out, err := execute(t, "settings", "set", "llm.api_key", "sk-1234567890abcdef")
	require.NoError(t, err)
	assert.Contains(t, out, "llm.api_key = sk-1...cdef")
	assert.NotContains(t, out, "1234567890")
}

func TestSettingsSet_Invalid(t *testing.T) {
	installTestServices(t)

	tests := []struct {
		key, value string
	}{
		{"engine.top_k", "many"},
		{"engine.top_k", "0"},
		{"engine.similarity_threshold", "1.5"},
		{"engine.answer_failure_policy", "retry"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			_, err := execute(t, "settings", "set", tt.key, tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to set "+tt.key)
		})
	}
}

func TestMCPServe_RequiresPaperServices(t *testing.T) {
	SetServices(nil)

	_, err := execute(t, "mcp", "serve")

	require.Error(t, err)
	assert.ErrorIs(t, err, mcp.ErrMissingLeaderboardService)
}
