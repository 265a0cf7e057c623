// Package pageload serves file-routed pages together with their load
// payloads.
//
// Routes are registered under the path of the file that defines them.
// "app/routes/posts/[id].go" becomes "/posts/[id]", "index" files map to
// their directory, and "[...name]" captures the rest of the path:
//
//	app, err := pageload.New(pageload.Options{
//	    Routes: map[string]pageload.Entry{
//	        "app/routes/index.go":      {Page: home},
//	        "app/routes/posts/[id].go": {Load: loadPost, Page: post},
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Exit(app.Execute())
//
// A loader returns one of load.Success, load.NotFound or load.Redirect.
// The same result is rendered into the HTML document on a full request
// and answered as JSON when the query carries the ".get" marker, so a
// client navigation sees exactly what server rendering saw.
//
// Configuration is read from pageload.json or pageload.yaml in the working
// directory or one of its parents; without one the defaults apply.
package pageload
