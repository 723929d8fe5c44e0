package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/quill/internal/service"
)

// ImageHandler handles article image upload and retrieval.
type ImageHandler struct {
	images *service.ImageService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images *service.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// HandleUpload processes a multipart image upload for an owned article.
// The file is read from the "image" form field.
// POST /blogs/{id}/image
func (h *ImageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	// Leave headroom for multipart framing; the service enforces the exact limit.
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageSize+(1<<20))
	if err := r.ParseMultipartForm(service.MaxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "Image too large or malformed upload.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("read upload", "error", err)
		writeError(w, http.StatusBadRequest, "Could not read uploaded image.")
		return
	}

	img, err := h.images.Upload(r.Context(), id.UserID, r.PathValue("id"), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeServiceError(w, "upload image", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Image uploaded successfully",
		"image":   toImageDTO(img),
	})
}

// HandleList returns the images uploaded for an article.
// GET /blogs/images/{id}
func (h *ImageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	images, err := h.images.ListByArticle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "list images", err)
		return
	}
	dtos := make([]ImageDTO, len(images))
	for i := range images {
		dtos[i] = toImageDTO(&images[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": dtos})
}

// HandleServe serves image bytes with correct Content-Type.
// GET /images/{id}
func (h *ImageHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.images.GetFile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "serve image", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
