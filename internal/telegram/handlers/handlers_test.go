package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.texts = append(s.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *fakeSender) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

type fakeChat struct {
	uploaded  []entity.Upload
	uploadErr error
	askErr    error
}

func (f *fakeChat) UploadCorpus(_ context.Context, upload entity.Upload, _ func(done, total int)) (entity.CorpusInfo, error) {
	if f.uploadErr != nil {
		return entity.CorpusInfo{}, f.uploadErr
	}
	f.uploaded = append(f.uploaded, upload)
	return entity.CorpusInfo{ID: "c1", Source: upload.Filename, ChunkCount: 3}, nil
}

func (f *fakeChat) Ask(_ context.Context, req entity.AskRequest) (entity.AskResult, error) {
	if f.askErr != nil {
		return entity.AskResult{}, f.askErr
	}
	return entity.AskResult{Answer: entity.Answer{Text: "answer to " + req.Question}}, nil
}

func (f *fakeChat) CorpusInfo(context.Context) (entity.CorpusInfo, error) {
	return entity.CorpusInfo{}, entity.ErrNoCorpusLoaded
}

type fakeDownloader struct {
	content []byte
	err     error
}

func (d *fakeDownloader) Download(context.Context, string) ([]byte, error) {
	return d.content, d.err
}

func TestDocumentHandler_Uploads(t *testing.T) {
	sender := &fakeSender{}
	chat := &fakeChat{}
	h := NewDocumentHandler(sender, chat, &fakeDownloader{content: []byte("name,text\nAlice,hi\n")}, 1024, zap.NewNop())

	err := h.Handle(context.Background(), &Message{
		ChatID:   1,
		Document: &tgbotapi.Document{FileID: "f1", FileName: "policy.csv", MimeType: "text/csv", FileSize: 20},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(chat.uploaded) != 1 || chat.uploaded[0].Filename != "policy.csv" || chat.uploaded[0].ContentType != "text/csv" {
		t.Fatalf("unexpected uploads %+v", chat.uploaded)
	}
	texts := sender.Texts()
	if len(texts) != 2 || texts[1] != fmt.Sprintf(render.MsgCorpusLoaded, "policy.csv", 3) {
		t.Errorf("unexpected replies %q", texts)
	}
}

func TestDocumentHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		downloader *fakeDownloader
		uploadErr  error
		want       string
	}{
		{"too large", 4096, &fakeDownloader{}, nil, render.ErrInvalidFile},
		{"busy", 10, &fakeDownloader{content: []byte("x")}, fmt.Errorf("build index: %w", entity.ErrUploadInProgress), render.ErrBusy},
		{"download fails", 10, &fakeDownloader{err: errors.New("boom")}, nil, render.ErrGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			h := NewDocumentHandler(sender, &fakeChat{uploadErr: tt.uploadErr}, tt.downloader, 1024, zap.NewNop())

			err := h.Handle(context.Background(), &Message{
				ChatID:   1,
				Document: &tgbotapi.Document{FileID: "f1", FileName: "a.csv", FileSize: tt.size},
			})
			if err != nil {
				t.Fatalf("errors should be reported to the chat, got %v", err)
			}

			texts := sender.Texts()
			if len(texts) == 0 || texts[len(texts)-1] != tt.want {
				t.Errorf("expected last reply %q, got %q", tt.want, texts)
			}
		})
	}
}

func TestQuestionHandler(t *testing.T) {
	sender := &fakeSender{}
	h := NewQuestionHandler(sender, &fakeChat{}, zap.NewNop())

	if err := h.Handle(context.Background(), &Message{ChatID: 1, Text: " What about Alice? "}); err != nil {
		t.Fatal(err)
	}
	if texts := sender.Texts(); len(texts) != 1 || texts[0] != "answer to What about Alice?" {
		t.Errorf("unexpected replies %q", texts)
	}

	sender = &fakeSender{}
	h = NewQuestionHandler(sender, &fakeChat{askErr: entity.ErrNoCorpusLoaded}, zap.NewNop())
	if err := h.Handle(context.Background(), &Message{ChatID: 1, Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	if texts := sender.Texts(); len(texts) != 1 || texts[0] != render.MsgNoCorpus {
		t.Errorf("expected no-corpus reply, got %q", texts)
	}
}

type staticFiles struct {
	file tgbotapi.File
}

func (s staticFiles) GetFile(tgbotapi.FileConfig) (tgbotapi.File, error) {
	return s.file, nil
}

func TestDownloader(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottoken:1/documents/a.csv") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("name,text\nAlice,hi\n"))
	}))
	defer srv.Close()

	d := &Downloader{
		files:        staticFiles{file: tgbotapi.File{FilePath: "documents/a.csv"}},
		token:        "token:1",
		fileEndpoint: srv.URL + "/file/bot%s/%s",
		client:       srv.Client(),
		maxSize:      1024,
	}

	data, err := d.Download(context.Background(), "f1")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "name,text\nAlice,hi\n" {
		t.Errorf("unexpected content %q", data)
	}

	d.maxSize = 5
	if _, err := d.Download(context.Background(), "f1"); !errors.Is(err, entity.ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}

	d.fileEndpoint = "http://example.com/file/bot%s/%s"
	d.maxSize = 1024
	if _, err := d.Download(context.Background(), "f1"); err == nil {
		t.Error("expected plain http to be rejected")
	}
}
