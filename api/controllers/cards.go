package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/membercards/api/responses"
	"github.com/angelmondragon/membercards/api/validators"
	"github.com/angelmondragon/membercards/internal/cards"
	"github.com/angelmondragon/membercards/pkg/logger"
)

func GenerateMemberCard(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := svc.GenerateCard(r.Context(), chi.URLParam(r, "memberId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, card)
	}
}

func GenerateBarcodeCard(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := svc.GenerateCardByBarcode(r.Context(), chi.URLParam(r, "barcode"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, card)
	}
}

// GenerateBatch keeps running when the client disconnects so a long batch is
// never left half written.
func GenerateBatch(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validators.MemberIDsRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.GenerateBatch(context.WithoutCancel(r.Context()), payload.MemberIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GenerateCombined(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validators.MemberIDsRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.GenerateCombined(context.WithoutCancel(r.Context()), payload.MemberIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func ListCardFiles(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := svc.ListDocuments(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, docs)
	}
}

func DownloadCardFile(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		body, doc, err := svc.OpenDocument(ctx, chi.URLParam(r, "fileName"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer func() { _ = body.Close() }()

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
		if doc.SizeBytes > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
		}
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, body); err != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{
				"file_name": doc.FileName,
				"error":     err.Error(),
			}), "download.interrupted")
		}
	}
}

func MemberQRPreview(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.QRPreview(r.Context(), chi.URLParam(r, "memberId"))
		writePNG(w, r, logg, data, err)
	}
}

func MemberBarcodePreview(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.BarcodePreview(r.Context(), chi.URLParam(r, "memberId"))
		writePNG(w, r, logg, data, err)
	}
}

func writePNG(w http.ResponseWriter, r *http.Request, logg *logger.Logger, data []byte, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
