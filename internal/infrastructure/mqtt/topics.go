package mqtt

// TopicPrefix is the base for every topic this engine publishes or
// subscribes to.
const TopicPrefix = "avengine"

// Topics provides builders for the engine's own MQTT topics, so the
// client and the bridge topic strings stay in one place.
type Topics struct{}

// SystemStatus is the topic the client's online/offline status (and
// Last Will and Testament) is published to.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}
