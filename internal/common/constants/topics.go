// internal/common/constants/topics.go
package constants

import "fmt"

// Node status values stored under the "roamcommand" parameter.
const (
	NodeStatusRunning = "running"
	NodeStatusStopped = "stopped"
)

// Parameter names in the node parameter tree.
const (
	ParamStatus   = "roamcommand"
	ParamRole     = "roamcommand/role"
	ParamGround   = "roamcommand/ground"
	ParamLastCode = "roamcommand/last_code"
	ParamMaster   = "roamcommand/master_uri"
)

// Guest science control payloads.
const (
	ControlStart = "start"
	ControlStop  = "stop"
)

// Robot topic patterns, keyed by node hostname.
const (
	RoamCommandTopicPattern = "roam/%s/command"
	RoamRoleTopicPattern    = "roam/%s/role"
	RoamGroundTopicPattern  = "roam/%s/ground"
	RoamStatusTopicPattern  = "roam/%s/status"
)

// Guest science topic patterns, keyed by APK name.
const (
	GSCommandTopicPattern = "gs/%s/command"
	GSControlTopicPattern = "gs/%s/control"
	GSStateTopicPattern   = "gs/%s/state"
	GSDataTopicPattern    = "gs/%s/data"
)

func GetRoamCommandTopic(hostname string) string {
	return fmt.Sprintf(RoamCommandTopicPattern, hostname)
}

func GetRoamRoleTopic(hostname string) string {
	return fmt.Sprintf(RoamRoleTopicPattern, hostname)
}

func GetRoamGroundTopic(hostname string) string {
	return fmt.Sprintf(RoamGroundTopicPattern, hostname)
}

func GetRoamStatusTopic(hostname string) string {
	return fmt.Sprintf(RoamStatusTopicPattern, hostname)
}

func GetGSCommandTopic(apk string) string {
	return fmt.Sprintf(GSCommandTopicPattern, apk)
}

func GetGSControlTopic(apk string) string {
	return fmt.Sprintf(GSControlTopicPattern, apk)
}

func GetGSStateTopic(apk string) string {
	return fmt.Sprintf(GSStateTopicPattern, apk)
}

func GetGSDataTopic(apk string) string {
	return fmt.Sprintf(GSDataTopicPattern, apk)
}
