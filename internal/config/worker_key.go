package config

type WorkerKeyStruct struct {
	PersistExamHistoryQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistExamHistoryQueue: "persist_exam_history_queue",
}
