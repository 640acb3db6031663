// Package devicesim emulates the foot controller's HTTP API.
//
// Device applies the firmware's parsing rules: out-of-range numbers are
// clamped, malformed payloads are rejected with the same plain-text bodies
// ("layout invalid", "button config invalid", ...) and successful writes
// answer {"ok":true}. Server routes the /api endpoints through chi and can
// inject latency and periodic failures. FileStore keeps the emulated flash
// in a JSON file and reloads it when the file is edited by hand.
package devicesim
