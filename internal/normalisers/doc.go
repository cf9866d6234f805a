// Package normalisers turns uploaded files into plain text. Each
// subpackage reads one family of formats; NewDefaultRegistry registers
// them all by MIME type.
package normalisers
