// Package config provides configuration parsing for pageload projects.
//
// The configuration is stored in pageload.json (or pageload.yaml) at the
// project root. This package handles loading, saving, and validating it.
//
// # Configuration File Structure
//
//	{
//	  "routes": {
//	    "dir": "app/routes",
//	    "prefix": "app/routes",
//	    "extension": ".go"
//	  },
//	  "server": {
//	    "port": 3000,
//	    "host": "localhost",
//	    "shutdownTimeout": "30s",
//	    "metrics": true,
//	    "live": true
//	  },
//	  "cache": {
//	    "maxEntries": 256,
//	    "revalidateOnFocus": true,
//	    "revalidateOnReconnect": true
//	  },
//	  "prefetch": {"rate": 10, "burst": 5},
//	  "export": {
//	    "dir": "dist/_payload",
//	    "concurrency": 4,
//	    "paths": ["/posts/1"]
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Address())
package config
