package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

const maxUploadBytes = 10 << 20

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type InteractionsHandler struct {
	repo      repository.InteractionRepo
	customers repository.CustomerRepo
	uploadDir string
}

func NewInteractionsHandler(repo repository.InteractionRepo, customers repository.CustomerRepo, uploadDir string) *InteractionsHandler {
	return &InteractionsHandler{repo: repo, customers: customers, uploadDir: uploadDir}
}

func (h *InteractionsHandler) List(w http.ResponseWriter, r *http.Request) {
	customerID, ok := withID(w, r, "customerId")
	if !ok {
		return
	}
	items, err := h.repo.ListInteractionsByCustomer(r.Context(), customerID)
	if err != nil {
		writeStoreError(w, "list interactions", err)
		return
	}
	writeJSON(w, emptyIfNil(items), http.StatusOK)
}

// Create accepts multipart/form-data with interaction_type, details and an
// optional file part.
func (h *InteractionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	customerID, ok := withID(w, r, "customerId")
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	typ, err := models.ParseInteractionType(r.FormValue("interaction_type"))
	if err != nil {
		writeStoreError(w, "create interaction", err)
		return
	}

	c, err := h.customers.GetCustomer(r.Context(), customerID)
	if err != nil {
		writeStoreError(w, "create interaction", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	in := models.Interaction{
		CustomerID: customerID,
		Type:       typ,
		Details:    strings.TrimSpace(r.FormValue("details")),
		Timestamp:  time.Now().UTC(),
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		name, err := h.saveUpload(file, header.Filename)
		if err != nil {
			logger.Error("save upload", "err", err)
			writeError(w, http.StatusInternalServerError, "could not store file")
			return
		}
		in.FilePath = name
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeError(w, http.StatusBadRequest, "invalid file part")
		return
	}

	id, err := h.repo.CreateInteraction(r.Context(), &in)
	if err != nil {
		writeStoreError(w, "create interaction", err)
		return
	}
	in.ID = id
	writeJSON(w, in, http.StatusCreated)
}

// saveUpload stores src under the upload dir with a unique, sanitised name
// and returns that name.
func (h *InteractionsHandler) saveUpload(src io.Reader, original string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		return "", err
	}
	name := SanitizeFilename(original)
	name = uuid.NewString()[:8] + "-" + name

	dst, err := os.OpenFile(filepath.Join(h.uploadDir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("copy upload: %w", err)
	}
	return name, dst.Close()
}

// SanitizeFilename strips directories and replaces characters outside
// [A-Za-z0-9._-] with underscores.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeFileChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "_" {
		return "upload"
	}
	return name
}
