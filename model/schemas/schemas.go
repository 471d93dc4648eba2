// Package schemas registers the model table schemas. It is imported for its
// side effects:
// ```
//   import _ "github.com/spolu/distinct/model/schemas"
// ```
package schemas
