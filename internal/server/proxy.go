package server

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httputil"
)

// setupProxy configures the reverse proxy to the web application that owns
// every route other than the sync endpoint and its helpers
func (s *DraftSyncServer) setupProxy() {
	target := s.config.ProxyURL

	// Create a transport with optional insecure TLS setting
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if s.config.InsecureProxy {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	s.reverseProxy = &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.Host = target.Host

			if target.RawQuery != "" {
				if req.URL.RawQuery == "" {
					req.URL.RawQuery = target.RawQuery
				} else {
					req.URL.RawQuery = target.RawQuery + "&" + req.URL.RawQuery
				}
			}
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.log.Warn(logModule, "Proxy request failed", map[string]interface{}{
				"url":   r.URL.String(),
				"error": err.Error(),
			})
			http.Error(w, fmt.Sprintf("Error proxying request: %v", err), http.StatusBadGateway)
		},
	}

	s.log.Info(logModule, "Proxy mode enabled", map[string]interface{}{"upstream": target.String()})
	if s.config.InsecureProxy {
		s.log.Warn(logModule, "SSL certificate verification disabled for proxy requests", nil)
	}
}

// proxyRequest forwards the request to the configured upstream
func (s *DraftSyncServer) proxyRequest(w http.ResponseWriter, r *http.Request) {
	s.log.Debug(logModule, "Proxying request", map[string]interface{}{"path": r.URL.Path})
	s.reverseProxy.ServeHTTP(w, r)
}
