package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fexa-archive/fexa/internal/db"
	"github.com/fexa-archive/fexa/internal/exam"
	"github.com/fexa-archive/fexa/internal/logger"
	"github.com/fexa-archive/fexa/internal/retry"
	"github.com/fexa-archive/fexa/internal/storage"
)

type testEnv struct {
	store  *exam.SQLStore
	blobs  *storage.FSStore
	server *httptest.Server
	base   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	sqlDB, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	base := t.TempDir()
	blobs, err := storage.NewFSStore(base)
	require.NoError(t, err)

	store := exam.NewSQLStore(sqlDB, "sqlite").WithRetryPolicy(retry.Policy{MaxAttempts: 1})
	srv := httptest.NewServer(NewRouter(store, blobs, logger.NewNop(), []string{"*"}))
	t.Cleanup(srv.Close)

	return &testEnv{store: store, blobs: blobs, server: srv, base: base}
}

func (e *testEnv) getJSON(t *testing.T, path string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// seedQuestion writes one exam with a four-choice question and returns it.
func seedQuestion(t *testing.T, store *exam.SQLStore) (exam.Exam, *exam.Question, []exam.Choice) {
	t.Helper()
	ctx := context.Background()

	ex, err := store.UpsertExam(ctx, 2023, exam.SeasonAutumn)
	require.NoError(t, err)

	q := &exam.Question{ExamID: ex.ID, Number: 1, Type: exam.TypeMorning, Text: "2進数の問題"}
	require.NoError(t, store.InsertQuestion(ctx, q))

	cs := make([]exam.Choice, 0, 4)
	for i, label := range exam.ChoiceLabels {
		cs = append(cs, exam.Choice{QuestionID: q.ID, Label: label, Text: fmt.Sprintf("選択肢%d", i+1)})
	}
	require.NoError(t, store.InsertChoices(ctx, cs))
	return ex, q, cs
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	body := env.getJSON(t, "/healthz", http.StatusOK)
	assert.Equal(t, "ok", body["status"])
}

func TestListExams(t *testing.T) {
	env := newTestEnv(t)
	seedQuestion(t, env.store)

	body := env.getJSON(t, "/api/exams", http.StatusOK)
	exams := body["exams"].([]any)
	require.Len(t, exams, 1)
	first := exams[0].(map[string]any)
	assert.Equal(t, float64(2023), first["year"])
	assert.Equal(t, string(exam.SeasonAutumn), first["season"])
}

func TestListQuestions(t *testing.T) {
	env := newTestEnv(t)
	_, q, _ := seedQuestion(t, env.store)

	body := env.getJSON(t, "/api/exams/2023/autumn/questions", http.StatusOK)
	questions := body["questions"].([]any)
	require.Len(t, questions, 1)
	assert.Equal(t, float64(q.ID), questions[0].(map[string]any)["id"])

	// Session-type filter.
	body = env.getJSON(t, "/api/exams/2023/autumn/questions?type=pm", http.StatusOK)
	assert.Empty(t, body["questions"])

	env.getJSON(t, "/api/exams/2023/winter/questions", http.StatusBadRequest)
	env.getJSON(t, "/api/exams/1999/autumn/questions", http.StatusNotFound)
}

func TestGetQuestion(t *testing.T) {
	env := newTestEnv(t)
	_, q, _ := seedQuestion(t, env.store)

	body := env.getJSON(t, fmt.Sprintf("/api/questions/%d", q.ID), http.StatusOK)
	choices := body["choices"].([]any)
	require.Len(t, choices, 4)
	first := choices[0].(map[string]any)
	assert.Equal(t, "ア", first["choice_label"])
	assert.Equal(t, "text", first["display_type"])

	env.getJSON(t, "/api/questions/99999", http.StatusNotFound)
}

func TestGetQuestionRebuildsChoiceTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ex, err := env.store.UpsertExam(ctx, 2022, exam.SeasonSpring)
	require.NoError(t, err)
	// A table question from before choice_table_markdown was stored.
	q := &exam.Question{
		ExamID: ex.ID, Number: 2, Type: exam.TypeMorning,
		Text: "表の問題", HasChoiceTable: true,
		ChoiceTableFormat: exam.TableFormatMarkdown,
	}
	require.NoError(t, env.store.InsertQuestion(ctx, q))
	require.NoError(t, env.store.InsertChoices(ctx, []exam.Choice{
		{QuestionID: q.ID, Label: "ア", Text: "CPU=1GHz",
			IsTableFormat: true,
			TableHeaders:  []string{"選択肢", "CPU"},
			TableData:     []string{"ア", "1GHz"}},
	}))

	body := env.getJSON(t, fmt.Sprintf("/api/questions/%d", q.ID), http.StatusOK)
	question := body["question"].(map[string]any)
	md := question["choice_table_markdown"].(string)
	assert.Contains(t, md, "| 選択肢 | CPU |")
	assert.Contains(t, md, "| ア | 1GHz |")

	choices := body["choices"].([]any)
	assert.Equal(t, "table", choices[0].(map[string]any)["display_type"])
}

func uploadImage(t *testing.T, env *testEnv, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "fig.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(env.server.URL+"/api/images/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestUploadAndDeleteQuestionImage(t *testing.T) {
	env := newTestEnv(t)
	_, q, _ := seedQuestion(t, env.store)
	ctx := context.Background()

	resp := uploadImage(t, env, map[string]string{"question_id": fmt.Sprint(q.ID)})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	key := body["key"].(string)
	assert.NotEmpty(t, key)

	// Blob landed on disk and the row points at it.
	_, err := os.Stat(filepath.Join(env.base, key))
	require.NoError(t, err)

	imgs, err := env.store.ListQuestionImages(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, key, imgs[0].StorageKey)
	assert.True(t, imgs[0].Uploaded)

	fresh, err := env.store.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, fresh.HasImage)

	// Delete removes blob and row.
	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/images/%d", env.server.URL, imgs[0].ID), nil)
	require.NoError(t, err)
	dresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	io.Copy(io.Discard, dresp.Body)
	dresp.Body.Close()
	require.Equal(t, http.StatusOK, dresp.StatusCode)

	_, err = os.Stat(filepath.Join(env.base, key))
	assert.True(t, os.IsNotExist(err))
	imgs, err = env.store.ListQuestionImages(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, imgs)
}

func TestUploadChoiceImage(t *testing.T) {
	env := newTestEnv(t)
	_, q, cs := seedQuestion(t, env.store)
	ctx := context.Background()

	resp := uploadImage(t, env, map[string]string{
		"question_id": fmt.Sprint(q.ID),
		"choice_id":   fmt.Sprint(cs[0].ID),
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := env.store.ListChoices(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, got[0].HasImage)
}

func TestUploadImageRequiresQuestionID(t *testing.T) {
	env := newTestEnv(t)
	resp := uploadImage(t, env, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteImageNotFound(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/api/images/12345", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
