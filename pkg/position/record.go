package position

// Record is the JSON shape of one stored/reported position (§3
// "PositionRecord"), widened with the folder it belongs to since every
// response needs to name it.
type Record struct {
	File         string  `json:"file"`
	Folder       string  `json:"folder"`
	PositionSecs float64 `json:"position"`
	TimestampMS  int64   `json:"timestamp"`
}

// Response is the JSON shape of every non-error reply (§4.E "Response").
// Folder is nil for a generic query, and is also nilled out when it would
// otherwise duplicate Last.
type Response struct {
	Folder *Record `json:"folder"`
	Last   *Record `json:"last"`
}

func buildResponse(folder, last *Record) *Response {
	resp := &Response{Folder: folder, Last: last}
	if folder != nil && last != nil && *folder == *last {
		resp.Folder = nil
	}
	return resp
}
