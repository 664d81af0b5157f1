/*
Package loader discovers definition files and loads each one exactly once per pass.

Experiments live directly under the load path and metrics under its "metrics"
subdirectory. A definition may name other definitions of its family under
"requires"; those are loaded first, recursively. A Guard scoped to one pass
tracks the files currently being loaded so a file that requires itself, directly
or through others, fails with a CircularLoadError instead of recursing forever.

Supported formats are chosen by extension (.yml, .yaml, .hcl). More can be added
with RegisterDecoder.
*/
package loader
