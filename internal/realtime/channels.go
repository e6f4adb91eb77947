package realtime

// Well-known channel names consumed by dashboard UI code.
const (
	ChannelDashboard = "dashboard"
	ChannelJobs      = "jobs"
	ChannelQueues    = "queues"
	ChannelWorkers   = "workers"
	ChannelWorkflows = "workflows"
)

// QueueChannel returns the channel carrying stats for a single queue.
func QueueChannel(name string) string {
	return "queue:" + name
}

// JobChannel returns the channel carrying updates for a single job.
func JobChannel(id string) string {
	return "job:" + id
}

// WorkflowChannel returns the channel carrying progress for a single workflow.
func WorkflowChannel(id string) string {
	return "workflow:" + id
}
