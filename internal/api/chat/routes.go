package chat

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers corpus and question routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/corpus", func(r chi.Router) {
		r.Post("/", h.UploadCorpus)
		r.Get("/", h.GetCorpus)
		r.Delete("/", h.DeleteCorpus)
	})

	r.Post("/ask", h.Ask)
	r.Post("/chat-with-document", h.ChatWithDocument)

	// Routes kept for clients of the first prototype
	r.Post("/upload-csv/", h.LegacyUploadCSV)
	r.Post("/query/", h.LegacyQuery)
	r.Post("/chat-with-document/", h.LegacyChatWithDocument)
}
