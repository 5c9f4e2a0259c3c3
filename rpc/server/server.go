// Package server serves the json-rpc and restful apis.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/rpc/v2"
	rpcjson "github.com/gorilla/rpc/v2/json2"

	"github.com/anyswap/substrate-client/internal/clientapi"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/params"
	"github.com/anyswap/substrate-client/rpc/restapi"
	"github.com/anyswap/substrate-client/rpc/rpcapi"
)

// StartAPIServer start api server, the returned server is shut down by the caller
func StartAPIServer(config *params.APIServerConfig, service *clientapi.Service) *http.Server {
	router := initRouter(service)

	apiPort := config.GetAPIPort()
	var allowedOrigins []string
	if config != nil {
		allowedOrigins = config.AllowedOrigins
	}

	corsOptions := []handlers.CORSOption{
		handlers.AllowedMethods([]string{"GET", "POST"}),
	}
	if len(allowedOrigins) != 0 {
		corsOptions = append(corsOptions,
			handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
			handlers.AllowedOrigins(allowedOrigins),
		)
	}

	log.Info("JSON RPC service listen and serving", "port", apiPort, "allowedOrigins", allowedOrigins)
	svr := &http.Server{
		Addr:         fmt.Sprintf(":%v", apiPort),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		Handler:      handlers.CORS(corsOptions...)(router),
	}
	go func() {
		if err := svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("ListenAndServe error", "err", err)
		}
	}()
	return svr
}

func initRouter(service *clientapi.Service) *mux.Router {
	r := mux.NewRouter()

	rpcserver := rpc.NewServer()
	rpcserver.RegisterCodec(rpcjson.NewCodec(), "application/json")
	_ = rpcserver.RegisterService(rpcapi.NewRPCAPI(service), "subxt")

	api := restapi.NewRestAPI(service)
	r.Handle("/rpc", rpcserver)
	r.HandleFunc("/serverinfo", api.ServerInfoHandler).Methods("GET")
	r.HandleFunc("/versioninfo", api.VersionInfoHandler).Methods("GET")
	r.HandleFunc("/runtime", api.RuntimeVersionHandler).Methods("GET")
	r.HandleFunc("/finalized", api.FinalizedHeadHandler).Methods("GET")
	r.HandleFunc("/module/{module}", api.ModuleHandler).Methods("GET")
	r.HandleFunc("/storagekey/{module}/{entry}", api.StorageKeyHandler).Methods("GET")
	r.HandleFunc("/storage/{module}/{entry}", api.StorageHandler).Methods("GET")
	r.HandleFunc("/receipt/{txhash}", api.ReceiptHandler).Methods("GET")

	methodsExcluesGet := []string{"POST", "HEAD", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"}

	r.HandleFunc("/serverinfo", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/versioninfo", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/runtime", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/finalized", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/module/{module}", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/storagekey/{module}/{entry}", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/storage/{module}/{entry}", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/receipt/{txhash}", warnHandler).Methods(methodsExcluesGet...)

	return r
}

func warnHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Forbid '%v' on '%v'\n", r.Method, r.RequestURI)
}
