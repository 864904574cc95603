package handlers

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/mrhollen/knowledgebase/internal/parsing"
	"github.com/mrhollen/knowledgebase/internal/service"
)

const maxUploadSize = 10 * 1024 * 1024 // 10 MB

type UploadHandler struct {
	Articles *service.ArticleService
}

// UploadFile turns an uploaded PDF into a new article. The multipart form
// carries the file under "file", an optional "title" and repeated "tags".
func (u *UploadHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Printf("error parsing multipart form: %v", err)
		writeDetail(w, http.StatusBadRequest, "the uploaded file is too big, please choose a file under 10MB")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid file upload")
		return
	}
	defer file.Close()

	if !parsing.IsPDF(header.Filename) {
		log.Printf("invalid file type uploaded: %s", header.Filename)
		writeDetail(w, http.StatusBadRequest, "please upload a PDF file")
		return
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		log.Printf("error reading uploaded file: %v", err)
		writeDetail(w, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}

	doc, err := parsing.ExtractDocument(header.Filename, buf.Bytes())
	if err != nil {
		log.Printf("error extracting text from %s: %v", header.Filename, err)
		writeDetail(w, http.StatusUnprocessableEntity, "failed to extract text from PDF")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = doc.Title
	}

	article, err := u.Articles.Create(r.Context(), currentUser(r), service.ArticleInput{
		Title:   title,
		Content: doc.Content,
		Tags:    r.MultipartForm.Value["tags"],
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, article)
}
