// Package files provides file system discovery and staging used by the
// report pipeline.
//
// Discovery expands the user supplied paths into the ordered list of
// tabular files to load: directories contribute their .csv, .tsv, .txt and
// .xlsx files sorted by name, plain files are kept as given.
//
// Manager stages uploaded files for the HTTP shell into a per-run directory
// under a root folder and removes them once the run is finished.
//
//	discovery := files.NewDiscovery("")
//	candidates := discovery.Expand([]string{"example_data", "extra.csv"})
package files
