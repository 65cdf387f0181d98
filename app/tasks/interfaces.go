package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API server to manage background
// task processing.
// Example usage:
//
//	scheduler := NewScheduler(watchService, sourceRepo, articleRepo, fetchClient)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewCheckSourceTask(sourceID, watchService))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
