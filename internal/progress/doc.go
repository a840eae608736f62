// Package progress provides human-readable progress output for a mirror run.
//
// The output is observational only and not meant to be parsed:
//
//	📁 Laws
//	  📁 Civil Code
//	    ⬇ Downloading: Law A.pdf
//	    ✓ Saved: Law A.pdf
//
// followed by a summary block with the downloaded and failed totals.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{Output: os.Stdout})
//	reporter.Start(baseURL, outputDir)
//	...
//	reporter.Summary(totals.Downloaded, totals.Failed, outputDir)
package progress
