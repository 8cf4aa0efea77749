package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// SearchCatalog serves keyword searches against the books catalog.
func (api *APIHandler) SearchCatalog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to search the catalog", missingFieldError("q").Error())
		if err := WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	// a zero or unparseable max falls back to the configured default.
	maxResults, _ := strconv.Atoi(r.URL.Query().Get("max"))

	records, err := api.importService.Search(r.Context(), keyword, maxResults)
	if err != nil {
		api.logger.Error("failed to search the catalog", zap.String("request.id", requestID), zap.String("keyword", keyword), zap.Error(err))
		errResp := NewAPIError(requestID, statusFromError(err), "failed to search the catalog", err.Error())
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to search the catalog", zap.String("request.id", requestID), zap.String("keyword", keyword))
	total := len(records)
	resp := GenericResponse(requestID, http.StatusOK, "Books fetched successfully from catalog.", &total, records)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// LookupCatalog serves a single book full record fetched by its isbn.
func (api *APIHandler) LookupCatalog(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	isbn := CleanISBN(ps.ByName("isbn"))
	if isbn == "" {
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to lookup the book", missingFieldError("isbn").Error())
		if err := WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	record, err := api.importService.Lookup(r.Context(), isbn)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Error("book does not exist in catalog", zap.String("isbn", isbn), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "book does not exist in catalog", record)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to lookup the book", zap.String("isbn", isbn), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, statusFromError(err), "failed to lookup the book", err.Error())
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to lookup the book", zap.String("isbn", isbn), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Book fetched successfully from catalog.", nil, record)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateImport persists the selected book into the destination store.
func (api *APIHandler) CreateImport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := ImportRequest{}
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	err := DecodeImportRequestBody(r, &req)
	if err != nil {
		api.logger.Error("failed to import book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to import the book", req)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = ValidateImportRequestBody(&req)
	if err != nil {
		api.logger.Error("failed to import book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to import the book", err.Error())
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	result, err := api.importService.Import(r.Context(), req)
	if err != nil {
		api.logger.Error("failed to import book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, statusFromError(err), "failed to import the book", err.Error())
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	resp := GenericResponse(requestID, http.StatusCreated, "Book imported successfully.", nil, result.Record)
	if result.Warning != "" {
		resp = resp.WithWarning(result.Warning)
	}
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAllImports serves the whole import history.
func (api *APIHandler) GetAllImports(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	records, err := api.importService.History(r.Context())
	if err != nil {
		api.logger.Error("failed to get all imports", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get all imports", records)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to get all imports", zap.String("request.id", requestID))
	total := len(records)
	resp := GenericResponse(requestID, http.StatusOK, "All imports fetched successfully.", &total, records)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetOneImport serves a single import history entry by its id.
func (api *APIHandler) GetOneImport(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	if ok := api.idsHandler.IsValid(id, ImportIDPrefix); !ok {
		api.logger.Error("import id provided is not valid", zap.String("import.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "import id provided is not valid", ImportRecord{})
		if err := WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	record, err := api.importService.HistoryOne(r.Context(), id)
	if errors.Is(err, ErrImportNotFound) {
		api.logger.Error("import record does not exist", zap.String("import.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "import record does not exist", record)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to get import record", zap.String("import.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get the import record", record)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to get import record", zap.String("import.id", id), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Import record fetched successfully.", nil, record)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteOneImport removes a single import history entry by its id.
func (api *APIHandler) DeleteOneImport(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	if ok := api.idsHandler.IsValid(id, ImportIDPrefix); !ok {
		api.logger.Error("import id provided is not valid", zap.String("import.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "import id provided is not valid", ImportRecord{})
		if err := WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err := api.importService.Forget(r.Context(), id)
	if errors.Is(err, ErrImportNotFound) {
		api.logger.Error("import record does not exist", zap.String("import.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "import record does not exist", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to delete import record", zap.String("import.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to delete the import record", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to delete import record", zap.String("import.id", id), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Import record deleted successfully.", nil, EmptyData)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// statusFromError maps a classified pipeline error to the http status
// reported to the caller. Configuration failures stay server-side
// errors while upstream collaborator failures surface as bad gateway.
func statusFromError(err error) int {
	var configErr *ConfigError
	var transportErr *TransportError
	var malformedErr *MalformedResponseError
	var catalogErr *CatalogError
	switch {
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrImportNotFound):
		return http.StatusNotFound
	case errors.As(err, &transportErr), errors.As(err, &malformedErr), errors.As(err, &catalogErr):
		return http.StatusBadGateway
	case errors.As(err, &configErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
