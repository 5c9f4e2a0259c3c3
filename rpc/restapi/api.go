// Package restapi provides the restful api service.
package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/anyswap/substrate-client/internal/clientapi"
	"github.com/anyswap/substrate-client/params"
	"github.com/gorilla/mux"
)

// RestAPI restful api handlers
type RestAPI struct {
	service *clientapi.Service
}

// NewRestAPI new restful api handlers
func NewRestAPI(service *clientapi.Service) *RestAPI {
	return &RestAPI{service: service}
}

func writeResponse(w http.ResponseWriter, resp interface{}, err error) {
	// Note: must set header before write header
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	if err == nil {
		jsonData, _ := json.Marshal(resp)
		_, _ = w.Write(jsonData)
	} else {
		fmt.Fprintln(w, err.Error())
	}
}

// ServerInfoHandler handler
func (api *RestAPI) ServerInfoHandler(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, api.service.GetServerInfo(), nil)
}

// VersionInfoHandler handler
func (api *RestAPI) VersionInfoHandler(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, params.VersionWithMeta, nil)
}

// ModuleHandler handler
func (api *RestAPI) ModuleHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := api.service.GetModule(vars["module"])
	writeResponse(w, res, err)
}

// StorageKeyHandler handler, the map key is the optional `key` query parameter
func (api *RestAPI) StorageKeyHandler(w http.ResponseWriter, r *http.Request) {
	res, err := api.service.GetStorageKey(storageKeyArgs(r))
	writeResponse(w, res, err)
}

// StorageHandler handler
func (api *RestAPI) StorageHandler(w http.ResponseWriter, r *http.Request) {
	res, err := api.service.GetStorage(r.Context(), storageKeyArgs(r))
	writeResponse(w, res, err)
}

// RuntimeVersionHandler handler
func (api *RestAPI) RuntimeVersionHandler(w http.ResponseWriter, r *http.Request) {
	res, err := api.service.GetRuntimeVersion(r.Context())
	writeResponse(w, res, err)
}

// FinalizedHeadHandler handler
func (api *RestAPI) FinalizedHeadHandler(w http.ResponseWriter, r *http.Request) {
	res, err := api.service.GetFinalizedHead(r.Context())
	writeResponse(w, res, err)
}

// ReceiptHandler handler
func (api *RestAPI) ReceiptHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := api.service.GetReceipt(vars["txhash"])
	writeResponse(w, res, err)
}

func storageKeyArgs(r *http.Request) *clientapi.StorageKeyArgs {
	vars := mux.Vars(r)
	return &clientapi.StorageKeyArgs{
		Module: vars["module"],
		Entry:  vars["entry"],
		Key:    r.URL.Query().Get("key"),
	}
}
