package leader

import "github.com/ssargent/ceoskit/pkg/codec"

// Record type keys of the RADARSAT leader file records this package knows.
var (
	FileDescriptorKey       = Key{Subtype1: 63, Type: 192, Subtype2: 18, Subtype3: 18}
	DataSetSummaryKey       = Key{Subtype1: 18, Type: 10, Subtype2: 18, Subtype3: 20}
	ProcessingParametersKey = Key{Subtype1: 18, Type: 120, Subtype2: 18, Subtype3: 20}
)

// num declares an integer field in the CEOS "In" format: right justified
// and blank padded.
func num(name string, width int, opts ...codec.MemberOption) codec.Member {
	return codec.Int(name, width, append([]codec.MemberOption{codec.PadWith(codec.SpacePadRight)}, opts...)...)
}

// BeamInformationRecord describes one beam of a ScanSAR acquisition.
var BeamInformationRecord = codec.MustLayout("BeamInformationRecord",
	codec.Text("beam_type", 3),
	codec.Text("beam_look_src", 9),
	codec.Float("beam_look_ang", 16),
	codec.Float("prf", 16),
)

// BeamPixelCountRecord holds the per-beam pixel counts at one update time.
var BeamPixelCountRecord = codec.MustLayout("BeamPixelCountRecord",
	codec.Text("pix_update", 21),
	num("n_pix", 8, codec.Times(4)),
)

// TemperatureSettingsRecord holds one set of receiver temperature settings.
var TemperatureSettingsRecord = codec.MustLayout("TemperatureSettingsRecord",
	num("temp_set", 4, codec.Times(4)),
)

// DopplerCentroidEstimateRecord holds one Doppler centroid polynomial.
var DopplerCentroidEstimateRecord = codec.MustLayout("DopplerCentroidEstimateRecord",
	codec.Float("dopcen_conf", 16),
	codec.Float("dopcen_ref_tim", 16),
	codec.Float("dopcen_coef", 16, codec.Times(4)),
)

// DopplerRateEstimatesRecord holds one Doppler rate polynomial.
var DopplerRateEstimatesRecord = codec.MustLayout("DopplerRateEstimatesRecord",
	codec.Float("dop_rate_conf", 16),
	codec.Float("dop_rate_ref_tim", 16),
	codec.Float("dop_rate_coef", 16, codec.Times(4)),
)

// SRGRCoefficientSetRecord holds one slant-to-ground range polynomial.
var SRGRCoefficientSetRecord = codec.MustLayout("SRGRCoefficientSetRecord",
	codec.Text("srgr_update", 21),
	codec.Float("srgr_coef", 16, codec.Times(6)),
)

// FileDescriptor is the first record of a leader file. Its n_*/l_* pairs
// give the count and length of every record type that follows.
var FileDescriptor = codec.MustLayout("FileDescriptor",
	codec.Text("ascii_flag", 2),
	codec.Text("spare1", 2),
	codec.Text("format_doc", 12),
	codec.Text("format_ver", 2),
	codec.Text("design_rev", 2),
	codec.Text("software_id", 12),
	num("file_num", 4),
	codec.Text("file_name", 16),
	codec.Text("rec_seq", 4),
	num("seq_loc", 8),
	num("seq_len", 4),
	codec.Text("rec_code", 4),
	num("code_loc", 8),
	num("code_len", 4),
	codec.Text("rec_len", 4),
	num("rlen_loc", 8),
	num("rlen_len", 4),
	codec.Text("spare2", 4),
	codec.Text("spare3", 64),
	num("n_dataset", 6),
	num("l_dataset", 6),
	num("n_map_proj", 6),
	num("l_map_proj", 6),
	num("n_plat_pos", 6),
	num("l_plat_pos", 6),
	num("n_att_data", 6),
	num("l_att_data", 6),
	num("n_radi_data", 6),
	num("l_radi_data", 6),
	num("n_radi_comp", 6),
	num("l_radi_comp", 6),
	num("n_qual_sum", 6),
	num("l_qual_sum", 6),
	num("n_data_hist", 6),
	num("l_data_hist", 6),
	num("n_rang_spec", 6),
	num("l_rang_spec", 6),
	num("n_dem_desc", 6),
	num("l_dem_desc", 6),
	num("n_radar_par", 6),
	num("l_radar_par", 6),
	num("n_anno_data", 6),
	num("l_anno_data", 6),
	num("n_det_proc", 6),
	num("l_det_proc", 6),
	num("n_cal", 6),
	num("l_cal", 6),
	num("n_gcp", 6),
	num("l_gcp", 6),
	codec.Text("spare4", 60),
	num("n_fac_data", 6),
	num("l_fac_data", 6),
	codec.Text("spare5", 288),
)

// DataSetSummary describes the scene, sensor and processing of the product.
var DataSetSummary = codec.MustLayout("DataSetSummary",
	num("seq_num", 4),
	num("sar_chn", 4),
	codec.Text("product_id", 16),
	codec.Text("scene_des", 32),
	codec.Text("inp_sctim", 32),
	codec.Text("asc_des", 16),
	codec.Float("pro_lat", 16),
	codec.Float("pro_long", 16),
	codec.Float("pro_head", 16),
	codec.Text("ellip_des", 16),
	codec.Float("ellip_maj", 16),
	codec.Float("ellip_min", 16),
	codec.Float("earth_mass", 16),
	codec.Float("grav_const", 16),
	codec.Float("ellip_j", 16, codec.Times(3)),
	codec.Text("spare1", 16),
	codec.Float("terrain_h", 16),
	num("sc_lin", 8),
	num("sc_pix", 8),
	codec.Float("scene_len", 16),
	codec.Float("scene_wid", 16),
	codec.Text("spare2", 16),
	num("nchn", 4),
	codec.Text("spare3", 4),
	codec.Text("mission_id", 16),
	codec.Text("sensor_id", 32),
	codec.Text("orbit_num", 8),
	codec.Float("plat_lat", 8),
	codec.Float("plat_long", 8),
	codec.Float("plat_head", 8),
	codec.Float("clock_ang", 8),
	codec.Float("incident_ang", 8),
	codec.Text("spare4", 8),
	codec.Float("wave_length", 16),
	codec.Text("motion_comp", 2),
	codec.Text("pulse_code", 16),
	codec.Float("ampl_coef", 16, codec.Times(5)),
	codec.Float("phas_coef", 16, codec.Times(5)),
	num("chirp_ext_ind", 8),
	codec.Text("spare5", 8),
	codec.Float("fr", 16),
	codec.Float("rng_gate", 16),
	codec.Float("rng_length", 16),
	codec.Text("baseband_f", 4),
	codec.Text("rngcmp_f", 4),
	codec.Float("gn_polar", 16),
	codec.Float("gn_cross", 16),
	num("chn_bits", 8),
	codec.Text("quant_desc", 12),
	codec.Float("i_bias", 16),
	codec.Float("q_bias", 16),
	codec.Float("iq_ratio", 16),
	codec.Text("spare6", 32),
	codec.Float("ele_sight", 16),
	codec.Float("mech_sight", 16),
	codec.Text("echo_track", 4),
	codec.Float("prf", 16),
	codec.Float("elev_beam", 16),
	codec.Float("azi_beam", 16),
	codec.Text("sat_bintim", 16),
	codec.Text("sat_clktim", 32),
	codec.Text("sat_clkinc", 16),
	codec.Text("spare7", 16),
	codec.Text("fac_id", 16),
	codec.Text("sys_id", 8),
	codec.Text("ver_id", 8),
	codec.Text("fac_code", 16),
	codec.Text("lev_code", 16),
	codec.Text("product_type", 32),
	codec.Text("algor_id", 32),
	codec.Float("n_azilok", 16),
	codec.Float("n_rnglok", 16),
	codec.Float("bnd_azilok", 16),
	codec.Float("bnd_rnglok", 16),
	codec.Float("bnd_azi", 16),
	codec.Float("bnd_rng", 16),
	codec.Text("azi_weight", 32),
	codec.Text("rng_weight", 32),
	codec.Text("data_inpsrc", 16),
	codec.Float("rng_res", 16),
	codec.Float("azi_res", 16),
	codec.Float("radi_stretch", 16, codec.Times(2)),
	codec.Float("alt_dopcen", 16, codec.Times(3)),
	codec.Text("spare8", 16),
	codec.Float("crt_dopcen", 16, codec.Times(3)),
	codec.Text("time_dir_pix", 8),
	codec.Text("time_dir_lin", 8),
	codec.Float("alt_rate", 16, codec.Times(3)),
	codec.Text("spare9", 16),
	codec.Float("crt_rate", 16, codec.Times(3)),
	codec.Text("spare10", 16),
	codec.Text("line_cont", 8),
	codec.Text("clutter_lock", 4),
	codec.Text("auto_focus", 4),
	codec.Float("line_spacing", 16),
	codec.Float("pix_spacing", 16),
	codec.Text("rngcmp_desg", 16),
	codec.Text("spare11", 2346),
)

// ProcessingParameters is the detailed processing parameters record.
var ProcessingParameters = codec.MustLayout("ProcessingParameters",
	num("rec_seq", 4),
	codec.Text("spare1", 4),
	codec.Text("inp_media", 3),
	num("n_tape_id", 4),
	codec.Text("tape_id", 8, codec.Times(10)),
	codec.Text("exp_ing_start", 21),
	codec.Text("exp_ing_stop", 21),
	codec.Text("act_ing_start", 21),
	codec.Text("act_ing_stop", 21),
	codec.Text("proc_start", 21),
	codec.Text("proc_stop", 21),
	codec.Float("mn_sig_lev", 16, codec.Times(10)),
	num("scr_data_ind", 4),
	num("miss_ln", 8),
	num("rej_ln", 8),
	num("large_gap", 8),
	codec.Float("bit_error_rate", 16),
	codec.Float("fm_crc_err", 16),
	num("date_incons", 8),
	num("prf_changes", 8),
	num("delay_changes", 8),
	num("skipd_frams", 8),
	num("rej_bf_start", 8),
	num("rej_few_fram", 8),
	num("rej_many_fram", 8),
	num("rej_mchn_err", 8),
	num("rej_vchn_err", 8),
	num("rej_rec_type", 8),
	num("prd_qual_ind", 4),
	codec.Text("qc_rating", 6),
	codec.Text("qc_comment", 80),
	codec.Text("sens_config", 10),
	codec.Text("sens_orient", 9),
	codec.Text("sych_marker", 8),
	codec.Text("rng_ref_src", 12),
	codec.Float("rng_amp_coef", 16, codec.Times(4)),
	codec.Float("rng_phas_coef", 16, codec.Times(4)),
	codec.Float("err_amp_coef", 16, codec.Times(4)),
	codec.Float("err_phas_coef", 16, codec.Times(4)),
	num("pulse_bandw", 4),
	codec.Text("adc_samp_rate", 5),
	codec.Float("rep_agc_attn", 16),
	codec.Float("gn_corctn_fctr", 16),
	codec.Float("rep_energy_gn", 16),
	codec.Text("orb_data_src", 11),
	num("pulse_cnt_1", 4),
	num("pulse_cnt_2", 4),
	codec.Text("beam_edge_rqd", 3),
	codec.Float("beam_edge_conf", 16),
	num("pix_overlap", 4),
	num("n_beams", 4),
	codec.Nested("beam_info", BeamInformationRecord, codec.Times(4)),
	num("n_pix_updates", 4),
	codec.Nested("pix_count", BeamPixelCountRecord, codec.Times(20)),
	codec.Float("pwin_start", 16),
	codec.Float("pwin_end", 16),
	codec.Text("recd_type", 9),
	codec.Float("temp_set_inc", 16),
	num("n_temp_set", 4),
	codec.Nested("temp", TemperatureSettingsRecord, codec.Times(20)),
	num("n_image_pix", 8),
	codec.Float("prc_zero_pix", 16),
	codec.Float("prc_satur_pix", 16),
	codec.Float("img_hist_mean", 16),
	codec.Float("img_cumu_dist", 16, codec.Times(3)),
	codec.Float("pre_img_gn", 16),
	codec.Float("post_img_gn", 16),
	codec.Float("dopcen_inc", 16),
	num("n_dopcen", 4),
	codec.Nested("dopcen_est", DopplerCentroidEstimateRecord, codec.Times(20)),
	num("dop_amb_err", 4),
	codec.Float("dopamb_conf", 16),
	codec.Float("eph_orb_data", 16, codec.Times(7)),
	codec.Text("appl_type", 12),
	codec.Float("first_lntim", 22),
	codec.Float("lntim_inc", 22),
	num("n_srgr", 4),
	codec.Nested("srgr_coefset", SRGRCoefficientSetRecord, codec.Times(20)),
	codec.Float("pixel_spacing", 16),
	codec.Text("pics_reqd", 3),
	codec.Text("wo_number", 8),
	codec.Text("wo_date", 20),
	codec.Text("satellite_id", 10),
	codec.Text("user_id", 20),
	codec.Text("complete_msg", 3),
	codec.Text("scene_id", 15),
	codec.Text("density_in", 4),
	codec.Text("media_id", 8),
	codec.Float("angle_first", 16),
	codec.Float("angle_last", 16),
	codec.Text("prod_type", 3),
	codec.Text("map_system", 16),
	codec.Float("centre_lat", 22),
	codec.Float("centre_long", 22),
	codec.Float("span_x", 22),
	codec.Float("span_y", 22),
	codec.Text("apply_dtm", 3),
	codec.Text("density_out", 4),
	codec.Text("state_time", 21),
	num("num_state_vectors", 4),
	codec.Float("state_inc", 16),
	num("n_dop_rate", 4),
	codec.Nested("dop_rate_est", DopplerRateEstimatesRecord, codec.Times(20)),
)
