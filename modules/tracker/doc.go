// Package tracker is the HTTP surface of the connection tracker.
//
// Routes:
//
//	POST /track                          track a connection {connectionId?, ip, userAgent}
//	GET  /connections                    every record
//	GET  /connections/active             connected records
//	GET  /connections/count              {total, active}
//	GET  /connections/ip/{ip}            records sharing an address
//	GET  /connections/{id}               one record
//	PUT  /connections/{id}/username      rename {username}
//	POST /connections/{id}/disconnect    mark closed
//	GET  /connections/events             DataStar SSE feed of counts and the active table
//	GET  /registry/{devices,browsers,os} catalog entries
//	POST /registry/classify              classify {userAgent}
//	POST /registry/train                 submit a labelled example
//	GET  /registry/train/recent?limit=N  recorded examples, newest first
//	GET  /status                         HTML status page
//	GET  /health                         dependency checks
//
// JSON responses use the {data, meta, error} envelope from package handler.
// Missing connections map to 404, bad input to 400 and an unavailable catalog to 503.
package tracker
