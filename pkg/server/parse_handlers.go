package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/amrlabs/amrd/internal"
	"github.com/amrlabs/amrd/pkg/models"
)

var log = internal.GetLogger()

var validate = validator.New()

// PostParseHandler godoc
//
//	@Summary		Parses a batch of tokenized sentences into AMR graphs
//	@Description	parse sentences with character offsets into one serialized AMR graph each, preserving input order
//	@Tags			parse
//	@Accept			json
//	@Produce		json
//	@Param			batch	body		models.AMRBatchInput	true	"Batch of sentences and annotations"
//	@Success		200		{object}	models.AMRBatchResponse
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/parse [post]
func PostParseHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var batch models.AMRBatchInput
		if err := decodeJSON(r, &batch); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(&batch); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		response, err := appState.Parser.Process(r.Context(), &batch)
		if err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := encodeJSON(w, response); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
