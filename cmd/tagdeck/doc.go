// Command tagdeck turns a video link into a tagged MP3 through the
// conversion service.
//
// Usage:
//
//	tagdeck [link]            interactive editor (needs a terminal)
//	tagdeck fetch <link>      extract, apply flag overrides, save
//	tagdeck inspect <link>    print the extracted tags
//	tagdeck check             ping the service
//	tagdeck logs              print the end of the log file
//
// Global flags: --config/-c, --log-level, --verbose/-v.
package main
