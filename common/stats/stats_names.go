package stats

/*
This file defines all the metrics being collected.   As new metrics are added please follow this pattern.
*/

const (
	/************************* Partition metrics **************************/
	/*
		the number of batches placed on the substrate, per phase scope
	*/
	PartitionScatteredCounter = "scatteredCounter"

	/*
		the number of batches dropped because placement failed after all retries
	*/
	PartitionScatterFailedCounter = "scatterFailedCounter"

	/*
		the number of batches the reader produced with an unrecognized phase
	*/
	PartitionUnknownPhaseCounter = "unknownPhaseCounter"

	/*
		documents per batch read from the corpus
	*/
	PartitionBatchDocsHistogram = "batchDocsHistogram"

	/*
		time spent reading and placing the whole corpus
	*/
	PartitionLatency_ms = "partitionLatency_ms"

	/************************* Sampler metrics **************************/
	/*
		size of the full cartesian product
	*/
	SamplerGridSizeGauge = "gridSizeGauge"

	/*
		number of combinations drawn for this run
	*/
	SamplerSampledGauge = "sampledGauge"

	/*
		the configured sample fraction
	*/
	SamplerFractionGauge = "sampleFractionGauge"

	/************************* Throttle metrics **************************/
	/*
		the number of backoff sleeps taken because a worker was above threshold
	*/
	ThrottleBackoffCounter = "throttleBackoffCounter"

	/*
		the number of admissions that ran out of retries and proceeded degraded
	*/
	ThrottleExhaustedCounter = "throttleExhaustedCounter"

	/*
		the number of worker metric polls that failed
	*/
	ThrottlePollFailedCounter = "throttlePollFailedCounter"

	/*
		time from the start of an admission to its decision, including sleeps
	*/
	ThrottleAdmitLatency_ms = "throttleAdmitLatency_ms"

	/************************* Scheduler metrics **************************/
	/*
		the number of sweep iterations that reached recycle
	*/
	SchedIterationsCompletedCounter = "iterationsCompletedCounter"

	/*
		amount of time it takes to run one iteration from throttle to recycle
	*/
	SchedIterationLatency_ms = "iterationLatency_ms"

	/*
		the number of tasks handed to the substrate for each phase
	*/
	TrainSubmittedCounter       = "trainSubmittedCounter"
	ValidateSubmittedCounter    = "validationSubmittedCounter"
	TestSubmittedCounter        = "testSubmittedCounter"
	ValidateSubmitFailedCounter = "validationSubmitFailedCounter"
	TestSubmitFailedCounter     = "testSubmitFailedCounter"

	/*
		the number of validation/test batches skipped because no trained model existed for their key
	*/
	ValidateSkippedCounter = "validationSkippedCounter"
	TestSkippedCounter     = "testSkippedCounter"

	/*
		the number of test batches whose handle carried no usable key metadata
	*/
	TestMetaFailedCounter = "testMetaFailedCounter"

	/*
		the number of tasks that resolved with an error, per phase
	*/
	TrainTaskFailedCounter    = "trainTaskFailedCounter"
	ValidateTaskFailedCounter = "validationTaskFailedCounter"
	TestTaskFailedCounter     = "testTaskFailedCounter"

	/*
		the number of tasks still pending when a wave's wait timed out
	*/
	WaveAbandonedCounter = "waveAbandonedCounter"

	/*
		amount of time the coordinator blocks in each wave's join
	*/
	WaveWaitLatency_ms = "waveWaitLatency_ms"

	/*
		the number of trained models overwritten by a later result for the same key
	*/
	ModelIndexReplacedCounter = "modelIndexReplacedCounter"

	/*
		the number of iterations whose visualization hit a missing key and was skipped
	*/
	VisualizeSkippedCounter = "visualizeSkippedCounter"

	/*
		the number of persistence calls that failed
	*/
	PersistFailedCounter = "persistFailedCounter"

	/*
		the number of rebalance requests that failed
	*/
	RebalanceFailedCounter = "rebalanceFailedCounter"

	/************************* Substrate metrics **************************/
	/*
		current number of workers in the local substrate
	*/
	SubstrateWorkersGauge = "workersGauge"

	/*
		the number of batches moved between workers by rebalance
	*/
	SubstrateBatchesMovedCounter = "batchesMovedCounter"

	/*
		the number of tasks that had to queue behind a worker's busy slots
	*/
	SubstrateQueuedTaskCounter = "queuedTaskCounter"

	/*
		amount of time a task spent running on a worker
	*/
	SubstrateTaskLatency_ms = "taskLatency_ms"

	/************************* Persist metrics **************************/
	/*
		the number of rows written to the results table
	*/
	PersistRowsWrittenCounter = "rowsWrittenCounter"
)
