// Package validation checks cassette files against the cassette JSON
// Schema plus semantic rules the schema cannot express (URL
// parseability, decodable bodies).
//
// The schema is embedded and compiled once per process. Violations are
// reported per element with the transaction index and a JSON pointer,
// so `replayd validate` can point at the exact broken field:
//
//	result, err := validation.ValidateFile("session.yaml")
//	if err != nil {
//	    // unreadable or undecodable file
//	}
//	for _, issue := range result.Issues {
//	    fmt.Println(issue) // transaction 2 (/2/response/statusCode): ...
//	}
package validation
