package winrt

// Runtime classes and their default interfaces.
const (
	audioPlaybackConnectionClass = "Windows.Media.Audio.AudioPlaybackConnection"
	deviceInformationClass       = "Windows.Devices.Enumeration.DeviceInformation"
	deviceWatcherClass           = "Windows.Devices.Enumeration.DeviceWatcher"

	iidAudioPlaybackConnection        = "1A4C1DEA-CAFC-50E7-8718-EA3F81CBFA51"
	iidAudioPlaybackConnectionStatics = "E60963A2-69E6-5FFC-9E13-824A85213DAF"
	iidDeviceInformation              = "ABA0FB95-4398-489D-8E44-E6130927011F"
	iidDeviceInformationStatics       = "C17F100E-3A46-4A78-8013-769DC9B97390"
	iidDeviceWatcher                  = "C9EAB97D-8F6B-4F96-A9F4-ABC814E22271"
	iidClosable                       = "30D5A829-7FA4-4026-83BB-D75BAE4EA99E"
	iidAgileObject                    = "94EA2B94-E9CC-49E0-C0FF-EE64CA8F5B90"
)

// Vtable slots. Every WinRT interface starts with IUnknown (0-2) and IInspectable (3-5).
const (
	slotQueryInterface = 0
	slotRelease        = 2

	// IAudioPlaybackConnectionStatics
	slotGetDeviceSelector = 6
	slotTryCreateFromID   = 7

	// IDeviceInformationStatics
	slotCreateWatcherAqsFilter = 14

	// IDeviceInformation
	slotDeviceInfoID   = 6
	slotDeviceInfoName = 7

	// IDeviceWatcher
	slotAddAdded                  = 6
	slotRemoveAdded               = 7
	slotAddEnumerationCompleted   = 12
	slotRemoveEnumerationComplete = 13
	slotWatcherStatus             = 16
	slotWatcherStart              = 17
	slotWatcherStop               = 18

	// IAudioPlaybackConnection
	slotConnDeviceID          = 6
	slotConnState             = 7
	slotConnStart             = 8
	slotConnOpen              = 10
	slotAddStateChanged       = 12
	slotRemoveStateChanged    = 13
	slotOpenResultExtendedErr = 6
	slotOpenResultStatus      = 7

	// IClosable
	slotClose = 6
)

// DeviceWatcherStatus values.
const (
	watcherCreated              = 0
	watcherStarted              = 1
	watcherEnumerationCompleted = 2
	watcherStopping             = 3
	watcherStopped              = 4
	watcherAborted              = 5
)
