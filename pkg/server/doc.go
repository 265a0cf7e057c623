// Package server serves routes over HTTP.
//
// Every GET is answered one of two ways. A request carrying the ".get"
// query marker receives the route's load result as JSON:
//
//	GET /posts/7?.get=        → {"props":{...},"meta":{...}}
//	GET /old?.get=            → {"redirect":"/new"}
//	GET /missing?.get=        → {"notFound":true}
//
// Any other request receives a full HTML document: the page component
// rendered with the resolved head tags, and the same JSON embedded for
// the client so the first view renders without a second fetch.
//
// Loader failures answer 500, as {"error":"..."} for payload requests and
// as an error document otherwise.
package server
