package catalog

const (
	// DentistryID is the department the chat assistant fast-tracks.
	DentistryID = 19

	// MainCampusID is the hospital the chat assistant offers by default.
	MainCampusID = 5

	// SarahJohnsonID is the dentist the chat assistant offers by default.
	SarahJohnsonID = 5
)

const doctorPlaceholderImage = "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcTuj2a_Lkjnw0IRzGPJgasIV0HWQjiMGP4M4g&s"

var departments = []Department{
	{ID: 1, Name: "Cardiology", Description: "Heart & Vascular", Icon: "heart", Locations: 3, Doctors: 12},
	{ID: 2, Name: "Neurology", Description: "Brain & Nervous System", Icon: "brain", Locations: 2, Doctors: 8},
	{ID: 3, Name: "Orthopedics", Description: "Bones & Joints", Icon: "bone", Locations: 3, Doctors: 15},
	{ID: 4, Name: "Ophthalmology", Description: "Eye Care", Icon: "eye", Locations: 2, Doctors: 6},
	{ID: 5, Name: "Pediatrics", Description: "Child Health", Icon: "baby", Locations: 3, Doctors: 10},
	{ID: 6, Name: "General Medicine", Description: "Primary Care", Icon: "stethoscope", Locations: 4, Doctors: 20},
	{ID: 7, Name: "Emergency", Description: "24/7 Care", Icon: "activity", Locations: 2, Doctors: 5},
	{ID: 8, Name: "Pharmacy", Description: "Medications", Icon: "pill", Locations: 4, Doctors: 3},
	{ID: 9, Name: "Dermatology", Description: "Skin & Hair Care", Icon: "shield", Locations: 2, Doctors: 7},
	{ID: 10, Name: "Surgery", Description: "Surgical Procedures", Icon: "scissors", Locations: 3, Doctors: 18},
	{ID: 11, Name: "Pathology", Description: "Lab & Diagnostics", Icon: "microscope", Locations: 4, Doctors: 5},
	{ID: 12, Name: "Radiology", Description: "Medical Imaging", Icon: "waves", Locations: 3, Doctors: 9},
	{ID: 13, Name: "Psychiatry", Description: "Mental Health", Icon: "moon", Locations: 2, Doctors: 6},
	{ID: 14, Name: "Gastroenterology", Description: "Digestive System", Icon: "droplets", Locations: 2, Doctors: 4},
	{ID: 15, Name: "Pulmonology", Description: "Lung & Respiratory", Icon: "wind", Locations: 2, Doctors: 5},
	{ID: 16, Name: "Oncology", Description: "Cancer Treatment", Icon: "zap", Locations: 1, Doctors: 8},
	{ID: 17, Name: "Urology", Description: "Kidney & Urinary", Icon: "droplets", Locations: 2, Doctors: 6},
	{ID: 18, Name: "Physiotherapy", Description: "Physical Therapy", Icon: "flame", Locations: 3, Doctors: 12},
	{ID: DentistryID, Name: "Dentistry", Description: "Dental care and oral health", Icon: "smile", Locations: 1, Doctors: 1},
}

var hospitals = []Hospital{
	{
		ID:          1,
		Name:        "KIMS Main Hospital",
		Address:     "1-8-31/1, Minister Road, Secunderabad",
		Coordinates: Coordinates{Lat: 17.4399, Lng: 78.4983},
		Phone:       "+91 40 4488 5000",
		Timing:      "24/7",
		Available:   true,
	},
	{
		ID:          2,
		Name:        "KIMS Kondapur",
		Address:     "Kondapur, Hyderabad",
		Coordinates: Coordinates{Lat: 17.4569, Lng: 78.3677},
		Phone:       "+91 40 4488 5100",
		Timing:      "8:00 AM - 10:00 PM",
		Available:   true,
	},
	{
		ID:          3,
		Name:        "KIMS Gachibowli",
		Address:     "Gachibowli, Hyderabad",
		Coordinates: Coordinates{Lat: 17.4435, Lng: 78.3479},
		Phone:       "+91 40 4488 5200",
		Timing:      "8:00 AM - 8:00 PM",
		Available:   true,
	},
	{
		ID:          4,
		Name:        "KIMS Rajahmundry",
		Address:     "Rajahmundry, Andhra Pradesh",
		Coordinates: Coordinates{Lat: 17.0047, Lng: 81.7777},
		Phone:       "+91 40 4488 5300",
		Timing:      "8:00 AM - 9:00 PM",
		Available:   false,
	},
	{
		ID:          MainCampusID,
		Name:        "KIMS Main Campus",
		Address:     "Minister Road, Secunderabad",
		Coordinates: Coordinates{Lat: 17.4401, Lng: 78.4987},
		Phone:       "+91 40 4488 5000",
		Timing:      "24/7",
		Available:   true,
	},
}

var doctors = []Doctor{
	{
		ID:            1,
		Name:          "Dr. Rajesh Kumar",
		Qualification: "MBBS, MD (Cardiology)",
		Image:         doctorPlaceholderImage,
		Slots:         Capacity{Morning: 5, Afternoon: 2, Evening: 0},
		Languages:     []string{"en", "hi", "ar"},
	},
	{
		ID:            2,
		Name:          "Dr. Priya Sharma",
		Qualification: "MBBS, MS (Orthopedics)",
		Image:         doctorPlaceholderImage,
		Slots:         Capacity{Morning: 7, Afternoon: 4, Evening: 3},
		Languages:     []string{"en", "hi"},
	},
	{
		ID:            3,
		Name:          "Dr. Amit Patel",
		Qualification: "MBBS, MD (Neurology)",
		Image:         doctorPlaceholderImage,
		Slots:         Capacity{Morning: 0, Afternoon: 1, Evening: 6},
		Languages:     []string{"en", "hi", "es"},
	},
	{
		ID:            4,
		Name:          "Dr. Sunita Reddy",
		Qualification: "MBBS, MD (Dermatology)",
		Image:         doctorPlaceholderImage,
		Slots:         Capacity{Morning: 3, Afternoon: 0, Evening: 2},
		Languages:     []string{"en", "hi", "ar"},
	},
	{
		ID:            SarahJohnsonID,
		Name:          "Dr. Sarah Johnson",
		Qualification: "DDS, Oral Surgery",
		Image:         doctorPlaceholderImage,
		DepartmentIDs: []int{DentistryID},
		Slots:         Capacity{Morning: 6, Afternoon: 3, Evening: 2},
		Languages:     []string{"en"},
	},
}
