// Package clientip resolves the originating client address of HTTP requests
// behind proxies and load balancers.
//
// Headers are only as trustworthy as the proxy that sets them. Configure the
// Resolver with the headers your edge actually writes; clients can forge any
// header that reaches the service untouched.
//
//	r := chi.NewRouter()
//	r.Use(clientip.Middleware(clientip.NewResolver(nil)))
//	...
//	ip := clientip.FromContext(req.Context())
package clientip
