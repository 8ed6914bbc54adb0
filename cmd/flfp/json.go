package main

import "encoding/json"

func eventToJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
